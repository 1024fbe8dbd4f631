package domain

import "time"

type Identity struct {
	ID        IdentityID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Phone     string     `gorm:"type:text;uniqueIndex:ux_identities_phone;not null" db:"phone" json:"phone"`
	CreatedAt time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Identity) TableName() string { return "identities" }

// OTPChallenge is the at-most-one pending challenge for an identity.
// Requesting a new code replaces the row; a successful verification deletes it.
type OTPChallenge struct {
	IdentityID IdentityID `gorm:"type:uuid;primaryKey" db:"identity_id"`
	Code       string     `gorm:"type:text;not null" db:"code"`
	ExpiresAt  time.Time  `gorm:"not null" db:"expires_at"`
	CreatedAt  time.Time  `gorm:"not null" db:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" db:"updated_at"`
}

func (OTPChallenge) TableName() string { return "otp_challenges" }
