package store

import (
	"context"
	"time"

	"veriscan/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeStore struct{ db *gorm.DB }

func (s *Store) Challenges() *ChallengeStore { return &ChallengeStore{db: s.DB} }

// Upsert replaces any pending challenge for the identity in one statement.
// Conflicts resolve on identity_id, the table's primary key.
func (cs *ChallengeStore) Upsert(ctx context.Context, ch *domain.OTPChallenge) error {
	now := time.Now().UTC()
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = now
	}
	ch.UpdatedAt = now

	return cs.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "updated_at"}),
	}).Create(ch).Error
}

func (cs *ChallengeStore) GetByIdentity(ctx context.Context, identityID domain.IdentityID) (*domain.OTPChallenge, error) {
	var out domain.OTPChallenge
	if err := cs.db.WithContext(ctx).First(&out, "identity_id = ?", identityID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Clear consumes the challenge. It reports ErrRecordNotFound when the row was
// already gone, so two racing verifications cannot both succeed.
func (cs *ChallengeStore) Clear(ctx context.Context, identityID domain.IdentityID) error {
	res := cs.db.WithContext(ctx).Where("identity_id = ?", identityID).Delete(&domain.OTPChallenge{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
