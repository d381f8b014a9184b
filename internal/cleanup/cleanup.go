package cleanup

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"cvpulse-backend/internal/shared/telemetry"
)

// Sweeper removes aged files under Dir and runs periodic maintenance
// hooks. Uploaded originals are transient; analysis results live in the
// record store.
type Sweeper struct {
	Dir    string
	MaxAge time.Duration

	// Hooks run on each tick after the file sweep, for in-memory
	// housekeeping like rate limiter window pruning.
	Hooks []func()

	now func() time.Time
}

func New(dir string, maxAge time.Duration) *Sweeper {
	return &Sweeper{Dir: dir, MaxAge: maxAge, now: time.Now}
}

// Sweep walks Dir once and removes regular files older than MaxAge.
// Returns how many files were removed.
func (s *Sweeper) Sweep() (int, error) {
	if s.Dir == "" || s.MaxAge <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.MaxAge)

	removed := 0
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directory may not exist yet on a fresh node.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// Start runs the sweep loop until ctx is canceled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep()
			if err != nil {
				telemetry.Warn("cleanup.sweep_failed", map[string]any{"error": err.Error()})
			} else if removed > 0 {
				telemetry.Info("cleanup.swept", map[string]any{"removed": removed})
			}
			for _, hook := range s.Hooks {
				hook()
			}
		}
	}
}
