package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/fovscan/internal/geom"
)

// PlaceFunc is the global a placement script must define:
//
//	function place_unit(index, half_extent)
//	  return { x = ..., y = ..., dir_x = ..., dir_y = ... }
//	end
const PlaceFunc = "place_unit"

var ErrNoPlacement = errors.New("no " + PlaceFunc + " function loaded")

// Engine wraps a single gopher-lua VM.
// 僅限單一 goroutine 使用：生成階段呼叫，掃描前關閉。
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script in scriptsDir.
// A missing directory yields an engine with nothing loaded.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if scriptsDir == "" {
		return e, nil
	}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// LoadString runs src in the engine's VM.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasPlacement reports whether a script defined place_unit.
func (e *Engine) HasPlacement() bool {
	return e.vm.GetGlobal(PlaceFunc).Type() == lua.LTFunction
}

// Place calls place_unit for unit index and returns its position and
// normalized direction.
func (e *Engine) Place(index int, halfExtent float32) (pos, dir geom.Vec2, err error) {
	fn := e.vm.GetGlobal(PlaceFunc)
	if fn.Type() != lua.LTFunction {
		return pos, dir, ErrNoPlacement
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(index), lua.LNumber(halfExtent)); err != nil {
		return pos, dir, fmt.Errorf("%s(%d): %w", PlaceFunc, index, err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	t, ok := ret.(*lua.LTable)
	if !ok {
		return pos, dir, fmt.Errorf("%s(%d): expected table, got %s", PlaceFunc, index, ret.Type())
	}
	pos = geom.V(getFloat(t, "x"), getFloat(t, "y"))
	dir = geom.V(getFloat(t, "dir_x"), getFloat(t, "dir_y"))
	if dir == (geom.Vec2{}) {
		return pos, dir, fmt.Errorf("%s(%d): zero direction", PlaceFunc, index)
	}
	return pos, geom.Normalize(dir), nil
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

func getFloat(t *lua.LTable, key string) float32 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float32(n)
	}
	return 0
}
