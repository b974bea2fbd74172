// internal/storage/archive/runs.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunsPrefix is the top-level directory holding archived recommendation runs.
const RunsPrefix = "runs"

// WriteRecorder observes archive writes.
type WriteRecorder interface {
	RecordArchiveWrite(status string)
}

// RunPath returns runs/YYYY/MM/DD/<runID>.json for the UTC date of asOf.
func RunPath(asOf time.Time, runID string) string {
	return path.Join(RunsPrefix, asOf.UTC().Format("2006/01/02"), runID+".json")
}

// Runs stores recommendation runs as JSON documents on a Storage backend.
type Runs struct {
	store    Storage
	logger   *zap.Logger
	recorder WriteRecorder
	pending  sync.WaitGroup
}

// RunsOption configures Runs.
type RunsOption func(*Runs)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) RunsOption {
	return func(r *Runs) {
		r.logger = logger
	}
}

// WithRecorder sets the write observer.
func WithRecorder(rec WriteRecorder) RunsOption {
	return func(r *Runs) {
		r.recorder = rec
	}
}

// NewRuns wraps a backend.
func NewRuns(store Storage, opts ...RunsOption) *Runs {
	r := &Runs{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save marshals run and writes it at RunPath(asOf, runID).
func (r *Runs) Save(ctx context.Context, runID string, asOf time.Time, run any) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("archive: empty run id")
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		r.record("error")
		return "", fmt.Errorf("encoding run %s: %w", runID, err)
	}

	p := RunPath(asOf, runID)
	if err := r.store.Write(ctx, p, data); err != nil {
		r.record("error")
		return "", fmt.Errorf("writing run %s: %w", runID, err)
	}
	r.record("ok")
	r.logger.Debug("run archived", zap.String("run_id", runID), zap.String("path", p), zap.Int("bytes", len(data)))
	return p, nil
}

// SaveAsync archives in the background. Failures are logged and never returned.
func (r *Runs) SaveAsync(runID string, asOf time.Time, run any, timeout time.Duration) {
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := r.Save(ctx, runID, asOf, run); err != nil {
			r.logger.Warn("archive run failed", zap.String("run_id", runID), zap.Error(err))
		}
	}()
}

// Wait blocks until every SaveAsync started so far has finished.
func (r *Runs) Wait() {
	r.pending.Wait()
}

// Load reads the run at p into out.
func (r *Runs) Load(ctx context.Context, p string, out any) error {
	data, err := r.store.Read(ctx, p)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", p, err)
	}
	return nil
}

// List returns the run paths archived on the UTC date of day.
func (r *Runs) List(ctx context.Context, day time.Time) ([]string, error) {
	return r.store.List(ctx, path.Join(RunsPrefix, day.UTC().Format("2006/01/02")))
}

// Prune deletes runs archived on dates strictly before cutoff's UTC date.
func (r *Runs) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	paths, err := r.store.List(ctx, RunsPrefix)
	if err != nil {
		return 0, err
	}
	limit := cutoff.UTC().Truncate(24 * time.Hour)

	removed := 0
	for _, p := range paths {
		day, ok := runDate(p)
		if !ok || !day.Before(limit) {
			continue
		}
		if err := r.store.Delete(ctx, p); err != nil {
			return removed, fmt.Errorf("deleting %s: %w", p, err)
		}
		removed++
	}
	if removed > 0 {
		r.logger.Info("pruned archived runs", zap.Int("removed", removed), zap.Time("before", limit))
	}
	return removed, nil
}

// runDate extracts the date from runs/YYYY/MM/DD/<id>.json.
func runDate(p string) (time.Time, bool) {
	parts := strings.Split(p, "/")
	if len(parts) != 5 || parts[0] != RunsPrefix {
		return time.Time{}, false
	}
	day, err := time.Parse("2006/01/02", strings.Join(parts[1:4], "/"))
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func (r *Runs) record(status string) {
	if r.recorder != nil {
		r.recorder.RecordArchiveWrite(status)
	}
}
