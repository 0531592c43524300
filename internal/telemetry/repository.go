package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultDirPerm = 0o755
)

// Repository persists snapshots for later inspection.
type Repository interface {
	Store(ctx context.Context, snapshot Snapshot) error
	Close() error
}

// HistoryConfig configures snapshot persistence. Disabled by default;
// sampling works the same either way.
type HistoryConfig struct {
	Enabled bool
	DBPath  string
}

func (c HistoryConfig) Validate() error {
	errFactory := errors.New()

	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	return nil
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewRepository opens (creating if needed) the history database. When
// cfg.Enabled is false a no-op repository is returned so callers never
// branch on the setting.
func NewRepository(cfg HistoryConfig) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.Enabled {
		logger.Debug().Msg("Snapshot history disabled, using no-op repository")
		return noopRepository{}, nil
	}

	logger.Debug().Msgf("Initializing snapshot history at: %s", cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{db: db}, nil
}

func initSchema(db *sql.DB) error {
	errFactory := errors.New()

	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS snapshots (
            timestamp INTEGER PRIMARY KEY,
            cpu_load REAL,
            cpu_temp REAL,
            igpu_load REAL,
            igpu_temp REAL,
            dgpu_load REAL,
            dgpu_temp REAL,
            ram_used REAL,
            battery_percent REAL,
            battery_charging INTEGER,
            battery_minutes INTEGER
        )
    `)
	if err != nil {
		return errFactory.Wrap(ErrStorageInit, err)
	}

	return nil
}

func (r *sqliteRepository) Store(ctx context.Context, snapshot Snapshot) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	var dgpuLoad, dgpuTemp any
	if snapshot.DGPU != nil {
		dgpuLoad = nullable(snapshot.DGPU.Load)
		dgpuTemp = nullable(snapshot.DGPU.Temp)
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO snapshots (
            timestamp, cpu_load, cpu_temp,
            igpu_load, igpu_temp, dgpu_load, dgpu_temp,
            ram_used, battery_percent, battery_charging, battery_minutes
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            cpu_load = excluded.cpu_load,
            cpu_temp = excluded.cpu_temp,
            igpu_load = excluded.igpu_load,
            igpu_temp = excluded.igpu_temp,
            dgpu_load = excluded.dgpu_load,
            dgpu_temp = excluded.dgpu_temp,
            ram_used = excluded.ram_used,
            battery_percent = excluded.battery_percent,
            battery_charging = excluded.battery_charging,
            battery_minutes = excluded.battery_minutes
    `,
		snapshot.Time.Unix(),
		nullable(snapshot.CPULoad),
		nullable(snapshot.CPUTemp),
		nullable(snapshot.IGPU.Load),
		nullable(snapshot.IGPU.Temp),
		dgpuLoad,
		dgpuTemp,
		nullable(snapshot.RAM),
		nullable(snapshot.Battery.Percent),
		boolToInt(snapshot.Battery.Charging),
		snapshot.Battery.TimeRemaining,
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) Close() error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}
	return nil
}

// nullable maps a degraded reading to SQL NULL.
func nullable(r Reading) any {
	if !r.OK {
		return nil
	}
	return r.Value
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type noopRepository struct{}

func (noopRepository) Store(_ context.Context, _ Snapshot) error { return nil }
func (noopRepository) Close() error                              { return nil }
