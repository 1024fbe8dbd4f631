package domain

import "github.com/google/uuid"

type IdentityID = uuid.UUID
type HistoryEntryID = uuid.UUID
