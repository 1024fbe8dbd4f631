package service

import (
	"context"

	"veriscan/internal/domain"
	"veriscan/internal/dto"
)

type AnalysisService interface {
	// RunSimilarity compares the reference and target documents. Each side
	// needs either a file or text.
	RunSimilarity(ctx context.Context, ref, tgt dto.DocumentInput, identityID domain.IdentityID) (*dto.SimilarityResult, error)

	// RunWebScan looks for similar public sources using search grounding.
	RunWebScan(ctx context.Context, doc dto.DocumentInput, identityID domain.IdentityID) (*dto.WebScanResult, error)

	// RunSummary produces an overview, key points and a conclusion.
	RunSummary(ctx context.Context, doc dto.DocumentInput, identityID domain.IdentityID) (*dto.SummaryResult, error)

	// History lists the identity's completed analyses, newest first.
	History(ctx context.Context, identityID domain.IdentityID) ([]domain.HistoryEntry, error)
}
