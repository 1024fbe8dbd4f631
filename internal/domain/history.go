package domain

import "time"

type AnalysisKind string

const (
	KindSimilarity AnalysisKind = "similarity-check"
	KindWebScan    AnalysisKind = "web-scan"
	KindSummary    AnalysisKind = "summary"
)

// HistoryEntry is an immutable audit record of one completed analysis.
// Rows are only ever inserted, after the model output passed validation.
type HistoryEntry struct {
	ID         HistoryEntryID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	IdentityID IdentityID     `gorm:"type:uuid;index;not null" db:"identity_id" json:"identityId"`
	Kind       AnalysisKind   `gorm:"type:text;not null" db:"kind" json:"kind"`
	Docs       string         `gorm:"type:text;not null" db:"docs" json:"docs"`
	Score      string         `gorm:"type:text;not null" db:"score" json:"score"`
	Details    string         `gorm:"type:text" db:"details" json:"details"`
	Verdict    string         `gorm:"type:text;not null" db:"verdict" json:"verdict"`
	CreatedAt  time.Time      `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (HistoryEntry) TableName() string { return "history_entries" }
