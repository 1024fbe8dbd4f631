package store

import (
	"context"

	"veriscan/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IdentityStore struct{ db *gorm.DB }

func (s *Store) Identities() *IdentityStore { return &IdentityStore{db: s.DB} }

func (i *IdentityStore) Create(ctx context.Context, id *domain.Identity) error {
	if id.ID == uuid.Nil {
		id.ID = uuid.New()
	}
	return i.db.WithContext(ctx).Create(id).Error
}

func (i *IdentityStore) GetByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	var out domain.Identity
	if err := i.db.WithContext(ctx).First(&out, "phone = ?", phone).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (i *IdentityStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	var out domain.Identity
	if err := i.db.WithContext(ctx).First(&out, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &out, nil
}
