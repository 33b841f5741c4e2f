package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Run is one completed scan.
type Run struct {
	ID       uuid.UUID
	Digest   string // world.Level.Digest of the scanned layout
	Indexed  int
	Workers  int // 0 when the scan ran inline
	Examined int64
	Elapsed  time.Duration
	Counts   []int // visible count per unit id
}

// RunRepo stores scan runs and their per-unit counts.
type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Save writes the run row and bulk-copies its counts in one transaction.
func (r *RunRepo) Save(ctx context.Context, run Run) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save run begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO scan_runs (run_id, digest, unit_count, indexed, workers, examined, elapsed_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.Digest, len(run.Counts), run.Indexed, run.Workers, run.Examined,
		float64(run.Elapsed)/float64(time.Millisecond),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"unit_visibility"},
		[]string{"run_id", "unit_id", "visible"},
		countRows(run.ID, run.Counts),
	); err != nil {
		return fmt.Errorf("copy unit counts: %w", err)
	}

	return tx.Commit(ctx)
}

// LoadCounts returns the per-unit counts stored for a run, indexed by unit id.
func (r *RunRepo) LoadCounts(ctx context.Context, id uuid.UUID) ([]int, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT unit_id, visible FROM unit_visibility WHERE run_id = $1 ORDER BY unit_id`, id)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	var counts []int
	for rows.Next() {
		var unitID, visible int32
		if err := rows.Scan(&unitID, &visible); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		for len(counts) <= int(unitID) {
			counts = append(counts, 0)
		}
		counts[unitID] = int(visible)
	}
	return counts, rows.Err()
}

// FindByDigest returns the ids of earlier runs over the same layout, newest first.
func (r *RunRepo) FindByDigest(ctx context.Context, digest string) ([]uuid.UUID, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT run_id FROM scan_runs WHERE digest = $1 ORDER BY created_at DESC`, digest)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// countRows feeds CopyFrom without materialising a [][]any up front.
func countRows(id uuid.UUID, counts []int) pgx.CopyFromSource {
	i := -1
	return pgx.CopyFromFunc(func() ([]any, error) {
		i++
		if i >= len(counts) {
			return nil, nil
		}
		return []any{id, int32(i), int32(counts[i])}, nil
	})
}
