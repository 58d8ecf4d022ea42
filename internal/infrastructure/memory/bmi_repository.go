// Package memory holds process-local repository adapters used for local
// runs (STORAGE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/bmi-tracker/internal/domain/entity"
	"github.com/oksasatya/bmi-tracker/internal/domain/repository"
)

type storedRecord struct {
	rec entity.BMIRecord
	seq uint64
}

type BMIRepository struct {
	mu      sync.RWMutex
	seq     uint64
	records map[string]storedRecord
	now     func() time.Time
}

func NewBMIRepository() *BMIRepository {
	return &BMIRepository{records: make(map[string]storedRecord), now: time.Now}
}

func (r *BMIRepository) Create(_ context.Context, rec *entity.BMIRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	rec.ID = uuid.NewString()
	rec.CreatedAt = r.now().UTC()
	r.records[rec.ID] = storedRecord{rec: *rec, seq: r.seq}
	return nil
}

// ListRecent breaks created_at ties with insertion order, newest first.
func (r *BMIRepository) ListRecent(_ context.Context, userID string, limit int) ([]entity.BMIRecord, error) {
	r.mu.RLock()
	owned := make([]storedRecord, 0)
	for _, s := range r.records {
		if s.rec.UserID == userID {
			owned = append(owned, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.rec.CreatedAt.After(b.rec.CreatedAt)
		}
		return a.seq > b.seq
	})

	if limit >= 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	out := make([]entity.BMIRecord, len(owned))
	for i, s := range owned {
		out[i] = s.rec
	}
	return out, nil
}

func (r *BMIRepository) GetLatest(ctx context.Context, userID string) (*entity.BMIRecord, error) {
	recs, err := r.ListRecent(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &recs[0], nil
}

func (r *BMIRepository) DeleteByID(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.records[id]
	if !ok || s.rec.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

var _ repository.BMIRepository = (*BMIRepository)(nil)
