// Package store persists converted records and run statistics to SQLite so
// runs can be compared and queried after the fact.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/IBM/API-BLEND/api"
	"github.com/IBM/API-BLEND/internal/stats"
)

// ErrUnknownRun is returned when a run ID is not in the database.
var ErrUnknownRun = errors.New("store: unknown run")

const batchSize = 500

// Run is one invocation of the converter.
type Run struct {
	ID         string `gorm:"primaryKey"`
	Command    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Record is one converted example.
type Record struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index:idx_record_split"`
	Dataset  string `gorm:"index:idx_record_split"`
	Split    string `gorm:"index:idx_record_split"`
	Position int
	Text     string
	APIs     []api.Call `gorm:"serializer:json"`
	Strategy string
	Matched  bool
}

// SplitStats is the statistics row for one dataset split of a run.
type SplitStats struct {
	RunID   string `gorm:"primaryKey"`
	Dataset string `gorm:"primaryKey"`
	Split   string `gorm:"primaryKey"`

	Examples       int
	Written        int
	Dropped        int
	MalformedLines int
	Unterminated   int
	Mismatches     int
	DroppedCalls   int

	IntentHistogram map[int]int    `gorm:"serializer:json"`
	Strategies      map[string]int `gorm:"serializer:json"`
	DropReasons     map[string]int `gorm:"serializer:json"`
}

// Store wraps the database handle. Writes are serialized; SQLite allows a
// single writer.
type Store struct {
	mu sync.Mutex
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the schema. Use "file::memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Run{}, &Record{}, &SplitStats{}); err != nil {
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BeginRun inserts a new run and returns its ID. An empty id is replaced
// by a fresh UUID; callers pass the logger's run ID so log lines and rows
// share it.
func (s *Store) BeginRun(ctx context.Context, id, command string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	run := Run{
		ID:        id,
		Command:   command,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

// FinishRun stamps the run's completion time.
func (s *Store) FinishRun(ctx context.Context, runID string) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&Run{}).Where("id = ?", runID).Update("finished_at", &now)
	if result.Error != nil {
		return fmt.Errorf("finishing run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}

// SaveRecords inserts records in batches inside one transaction.
func (s *Store) SaveRecords(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(records, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("saving records: %w", err)
	}
	return nil
}

// SaveStats upserts the statistics of one split.
func (s *Store) SaveStats(ctx context.Context, runID string, st stats.Split) error {
	row := SplitStats{
		RunID:           runID,
		Dataset:         st.Dataset,
		Split:           st.Split,
		Examples:        st.Examples,
		Written:         st.Written,
		Dropped:         st.Dropped,
		MalformedLines:  st.MalformedLines,
		Unterminated:    st.Unterminated,
		Mismatches:      st.Mismatches,
		DroppedCalls:    st.DroppedCalls,
		IntentHistogram: st.IntentHistogram,
		Strategies:      st.Strategies,
		DropReasons:     st.DropReasons,
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("saving stats: %w", err)
	}
	return nil
}

// Records returns the records of one split in input order.
func (s *Store) Records(ctx context.Context, runID, dataset, split string) ([]Record, error) {
	var out []Record
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND dataset = ? AND split = ?", runID, dataset, split).
		Order("position").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return out, nil
}

// Stats returns every split row of a run.
func (s *Store) Stats(ctx context.Context, runID string) ([]SplitStats, error) {
	var out []SplitStats
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("dataset, split").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing stats: %w", err)
	}
	return out, nil
}

// GetRun looks up a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("loading run: %w", err)
	}
	return run, nil
}
