package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/width"

	"github.com/l1jgo/fovscan/internal/config"
	coresys "github.com/l1jgo/fovscan/internal/core/system"
	"github.com/l1jgo/fovscan/internal/core/worker"
	"github.com/l1jgo/fovscan/internal/data"
	"github.com/l1jgo/fovscan/internal/persist"
	"github.com/l1jgo/fovscan/internal/scripting"
	"github.com/l1jgo/fovscan/internal/system"
	"github.com/l1jgo/fovscan/internal/world"
)

const defaultConfigPath = "config/fovscan.toml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(units int, seed int64) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Fprintln(os.Stderr, "\033[36;1m  │\033[0m              fovscan  v0.1.0              \033[36;1m│\033[0m")
	fmt.Fprintln(os.Stderr, "\033[36;1m  │\033[0m       四叉樹 · 視野可見性掃描             \033[36;1m│\033[0m")
	fmt.Fprintln(os.Stderr, "\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "  \033[1m單位數:\033[0m %d \033[90m(種子: %d)\033[0m\n\n", units, seed)
}

// displayWidth 以兩欄計算全形與寬字元（中文標籤對齊用）
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func printSection(title string) {
	lineLen := max(46-displayWidth(title)-1, 3)
	fmt.Fprintf(os.Stderr, "  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-displayWidth(label)-len(numStr), 3)
	fmt.Fprintf(os.Stderr, "  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Fprintf(os.Stderr, "  \033[32m✓\033[0m %s\n", msg)
}

// ── Main logic ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seed := cfg.Scene.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// 3. Unit sources
	printSection("場景")
	var scenario *data.Scenario
	halfExtent := cfg.Scene.HalfExtent
	if cfg.Scene.Scenario != "" {
		scenario, err = data.LoadScenario(cfg.Scene.Scenario)
		if err != nil {
			return err
		}
		if scenario.HalfExtent > 0 {
			halfExtent = scenario.HalfExtent
		}
		printOK("載入場景檔 " + cfg.Scene.Scenario)
	}

	units := cfg.Scene.UnitCount
	if scenario != nil {
		units = scenario.Count()
	}
	printBanner(units, seed)

	var script *scripting.Engine
	if scenario == nil && cfg.Scene.ScriptsDir != "" {
		script, err = scripting.NewEngine(cfg.Scene.ScriptsDir, log)
		if err != nil {
			return err
		}
		defer script.Close()
		if script.HasPlacement() {
			printOK("放置腳本載入完成")
		}
	}
	printStat("場景半徑", int(halfExtent))
	printStat("節點容量", cfg.Index.NodeCapacity)
	printStat("最大深度", cfg.Index.MaxDepth)

	// 4. Worker pool
	var pool *worker.Pool
	workers := 0
	if !cfg.Pool.Inline {
		pool = worker.New(cfg.Pool.Workers, log)
		workers = pool.Size()
		defer func() {
			if dropped := pool.Shutdown(); dropped > 0 {
				log.Warn("tasks dropped at exit", zap.Int("dropped", dropped))
			}
		}()
	}
	printStat("工作執行緒", workers)
	fmt.Fprintln(os.Stderr)

	builder := world.NewBuilder(world.BuilderOptions{
		Capacity:     units,
		HalfExtent:   halfExtent,
		NodeCapacity: cfg.Index.NodeCapacity,
		MaxDepth:     cfg.Index.MaxDepth,
		Pool:         pool,
	}, log)
	scene := system.NewScene(builder, workers)

	// 5. Register systems
	runner := coresys.NewRunner()
	runner.Register(system.NewSpawnSystem(cfg.Scene, scene, scenario, script, rand.New(rand.NewSource(seed)), log))
	runner.Register(system.NewScanSystem(scene, log))
	runner.Register(system.NewReportSystem(os.Stdout, cfg.Report, scene))

	if cfg.Database.Enabled {
		printSection("資料庫")
		db, err := persist.Open(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功，資料庫遷移完成")
		fmt.Fprintln(os.Stderr)
		runner.Register(system.NewPersistSystem(persist.NewRunRepo(db), scene, log))
	}

	// 6. Run once
	if err := runner.Run(ctx); err != nil {
		return err
	}
	log.Debug("run finished", zap.Stringer("run", scene.RunID))
	return nil
}

// loadConfig 優先讀取 FOVSCAN_CONFIG；預設路徑不存在時使用內建設定。
func loadConfig() (*config.Config, error) {
	if p := os.Getenv("FOVSCAN_CONFIG"); p != "" {
		return config.Load(p)
	}
	cfg, err := config.Load(defaultConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
