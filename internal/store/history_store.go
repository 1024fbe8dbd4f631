package store

import (
	"context"
	"time"

	"veriscan/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryStore struct{ db *gorm.DB }

func (s *Store) History() *HistoryStore { return &HistoryStore{db: s.DB} }

func (h *HistoryStore) Append(ctx context.Context, e *domain.HistoryEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return h.db.WithContext(ctx).Create(e).Error
}

// ListByIdentity returns the identity's entries newest-first. An identity with
// no history yields an empty slice, not an error.
func (h *HistoryStore) ListByIdentity(ctx context.Context, identityID domain.IdentityID) ([]domain.HistoryEntry, error) {
	out := make([]domain.HistoryEntry, 0)
	err := h.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
