package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/solatis/aepbridge/internal/core/db"
	"github.com/solatis/aepbridge/internal/core/metrics"
)

// journalWriteTimeout bounds the database write of one record.
const journalWriteTimeout = 5 * time.Second

// CallStore persists journal records. Implemented by *db.Queries.
type CallStore interface {
	InsertCall(ctx context.Context, rec db.CallRecord) error
}

// Journal records bridge calls for inspection. The database is the source
// of truth; the daily JSONL files under dir are a best-effort mirror and
// may contain records the database rejected. A nil *Journal records nothing.
type Journal struct {
	store   CallStore
	dir     string
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu    sync.Mutex
	files map[string]*sync.Mutex
}

// NewJournal creates a journal writing to store and, when dir is not
// empty, to daily JSONL files in dir. Either sink may be omitted.
func NewJournal(store CallStore, dir string, m *metrics.Metrics, logger *slog.Logger) (*Journal, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		store:   store,
		dir:     dir,
		metrics: m,
		logger:  logger,
		files:   make(map[string]*sync.Mutex),
	}, nil
}

// Record writes rec to every configured sink. Failures are logged and
// counted, never returned: journaling must not fail a bridge call.
func (j *Journal) Record(ctx context.Context, rec db.CallRecord) {
	if j == nil {
		return
	}

	if j.store != nil {
		// Detached so a cancelled call is still journaled
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
		err := j.store.InsertCall(wctx, rec)
		cancel()
		j.metrics.RecordJournal("db", err)
		if err != nil {
			j.logger.Warn("journal insert failed", "call_id", rec.CallID, "error", err)
		}
	}

	if j.dir != "" {
		err := j.appendJSONL(rec)
		j.metrics.RecordJournal("file", err)
		if err != nil {
			j.logger.Warn("journal mirror write failed", "call_id", rec.CallID, "error", err)
		}
	}
}

// FileFor returns the JSONL file holding records created at t.
func (j *Journal) FileFor(t time.Time) string {
	return filepath.Join(j.dir, t.UTC().Format("2006-01-02")+".jsonl")
}

func (j *Journal) appendJSONL(rec db.CallRecord) error {
	name := j.FileFor(rec.CreatedAt)
	lock := j.fileMutex(name)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// fileMutex returns the mutex guarding name. The map grows by one entry per day.
func (j *Journal) fileMutex(name string) *sync.Mutex {
	j.mu.Lock()
	defer j.mu.Unlock()

	m, ok := j.files[name]
	if !ok {
		m = &sync.Mutex{}
		j.files[name] = m
	}
	return m
}
