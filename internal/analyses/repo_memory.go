package analyses

import (
	"context"
	"sort"
	"sync"
)

type memoryRepo struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryRepo constructs an in-memory repository. Used in development
// and whenever no database is configured.
func NewMemoryRepo() Repo {
	return &memoryRepo{records: make(map[string]Record)}
}

func (r *memoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (r *memoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0)
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		out = append(out, Summary{
			ID:           rec.ID,
			FileName:     rec.FileName,
			OverallScore: rec.Result.OverallScore,
			ATSScore:     rec.Result.ATSScore,
			CreatedAt:    rec.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
