package impl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"veriscan/internal/domain"
	"veriscan/internal/dto"
	"veriscan/internal/genai"
	"veriscan/internal/observability/metrics"
	obsmw "veriscan/internal/observability/middleware"
	"veriscan/internal/store"
)

type AnalysisServiceImpl struct {
	Model  modelClient
	Ledger historyStore
}

func NewAnalysisServiceImpl(model *genai.Client, st *store.Store) *AnalysisServiceImpl {
	return &AnalysisServiceImpl{
		Model:  model,
		Ledger: st.History(),
	}
}

type modelClient interface {
	Generate(ctx context.Context, parts []genai.Part, opts genai.GenerateOptions) (string, error)
}

type historyStore interface {
	Append(ctx context.Context, e *domain.HistoryEntry) error
	ListByIdentity(ctx context.Context, identityID domain.IdentityID) ([]domain.HistoryEntry, error)
}

const (
	placeholderRef = "reference file attached"
	placeholderTgt = "target file attached"
)

func (s *AnalysisServiceImpl) RunSimilarity(ctx context.Context, ref, tgt dto.DocumentInput, identityID domain.IdentityID) (*dto.SimilarityResult, error) {
	result := "success"
	defer func() {
		metrics.AnalysisRequestsTotal.WithLabelValues("similarity", result).Inc()
	}()

	if !ref.Present() || !tgt.Present() {
		result = "failure"
		return nil, domain.ErrMissingInput
	}

	// Files go first so the instruction can refer to them as attachments.
	var parts []genai.Part
	if ref.HasFile() {
		parts = append(parts, genai.DataPart(ref.MIMEType, ref.Data))
	}
	if tgt.HasFile() {
		parts = append(parts, genai.DataPart(tgt.MIMEType, tgt.Data))
	}
	parts = append(parts, genai.TextPart(similarityPrompt(ref, tgt)))

	raw, err := s.Model.Generate(ctx, parts, genai.GenerateOptions{JSONOnly: true})
	if err != nil {
		result = "failure"
		slog.Error("similarity model call failed", "error", err,
			"request_id", obsmw.RequestIDFromContext(ctx))
		return nil, err
	}

	var payload struct {
		SimilarityScore *float64 `json:"similarity_score"`
		MatchedWords    *int     `json:"matched_words"`
		TotalWords      *int     `json:"total_words"`
		CommonPhrases   []string `json:"common_phrases"`
		ExactMatchPct   float64  `json:"exact_match_pct"`
		ParaphrasePct   float64  `json:"paraphrase_pct"`
		StructuralPct   float64  `json:"structural_pct"`
		RefLang         string   `json:"ref_lang"`
		TgtLang         string   `json:"tgt_lang"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		result = "failure"
		slog.Error("similarity output rejected", "error", err,
			"request_id", obsmw.RequestIDFromContext(ctx))
		return nil, fmt.Errorf("%w: %v", domain.ErrModelOutputInvalid, err)
	}
	if payload.SimilarityScore == nil || payload.MatchedWords == nil || payload.TotalWords == nil {
		result = "failure"
		return nil, fmt.Errorf("%w: required numeric field absent", domain.ErrModelOutputInvalid)
	}

	score := *payload.SimilarityScore
	out := &dto.SimilarityResult{
		SimilarityScore: score,
		MatchedWords:    *payload.MatchedWords,
		TotalWords:      *payload.TotalWords,
		CommonPhrases:   payload.CommonPhrases,
		ExactMatchPct:   payload.ExactMatchPct,
		ParaphrasePct:   payload.ParaphrasePct,
		StructuralPct:   payload.StructuralPct,
		RefLang:         payload.RefLang,
		TgtLang:         payload.TgtLang,
		Verdict:         similarityVerdict(score),
	}

	entry := &domain.HistoryEntry{
		IdentityID: identityID,
		Kind:       domain.KindSimilarity,
		Docs:       ref.Label("Text") + " -> " + tgt.Label("Text"),
		Score:      formatScore(score),
		Details:    out.RefLang + " ↔ " + out.TgtLang,
		Verdict:    out.Verdict,
	}
	if err := s.Ledger.Append(ctx, entry); err != nil {
		result = "failure"
		return nil, err
	}
	return out, nil
}

func (s *AnalysisServiceImpl) RunWebScan(ctx context.Context, doc dto.DocumentInput, identityID domain.IdentityID) (*dto.WebScanResult, error) {
	result := "success"
	defer func() {
		metrics.AnalysisRequestsTotal.WithLabelValues("webscan", result).Inc()
	}()

	if !doc.Present() {
		result = "failure"
		return nil, domain.ErrMissingInput
	}

	var parts []genai.Part
	if doc.HasFile() {
		parts = append(parts, genai.DataPart(doc.MIMEType, doc.Data))
	}
	parts = append(parts, genai.TextPart(webScanPrompt(doc)))

	// Search grounding cannot be combined with a forced JSON MIME type, so
	// the prompt insists on JSON and the decoder strips any fencing.
	raw, err := s.Model.Generate(ctx, parts, genai.GenerateOptions{WebSearch: true})
	if err != nil {
		result = "failure"
		slog.Error("web scan model call failed", "error", err,
			"request_id", obsmw.RequestIDFromContext(ctx))
		return nil, err
	}

	var payload struct {
		Sources []dto.WebSource `json:"sources"`
	}
	if err := decodeModelJSON(raw, &payload); err != nil {
		result = "failure"
		slog.Error("web scan output rejected", "error", err,
			"request_id", obsmw.RequestIDFromContext(ctx))
		return nil, fmt.Errorf("%w: %v", domain.ErrModelOutputInvalid, err)
	}
	if payload.Sources == nil {
		payload.Sources = []dto.WebSource{}
	}

	topScore := 0.0
	if len(payload.Sources) > 0 {
		topScore = payload.Sources[0].Score
	}
	verdict := "Pass"
	if topScore >= 80 {
		verdict = "High Risk"
	}

	out := &dto.WebScanResult{Sources: payload.Sources, Verdict: verdict}

	entry := &domain.HistoryEntry{
		IdentityID: identityID,
		Kind:       domain.KindWebScan,
		Docs:       doc.Label("Document"),
		Score:      formatScore(topScore),
		Details:    fmt.Sprintf("%d sources found", len(payload.Sources)),
		Verdict:    verdict,
	}
	if err := s.Ledger.Append(ctx, entry); err != nil {
		result = "failure"
		return nil, err
	}
	return out, nil
}

func (s *AnalysisServiceImpl) RunSummary(ctx context.Context, doc dto.DocumentInput, identityID domain.IdentityID) (*dto.SummaryResult, error) {
	result := "success"
	defer func() {
		metrics.AnalysisRequestsTotal.WithLabelValues("summary", result).Inc()
	}()

	if !doc.Present() {
		result = "failure"
		return nil, domain.ErrMissingInput
	}

	var parts []genai.Part
	if doc.HasFile() {
		parts = append(parts, genai.DataPart(doc.MIMEType, doc.Data))
	}
	parts = append(parts, genai.TextPart(summaryPrompt(doc)))

	raw, err := s.Model.Generate(ctx, parts, genai.GenerateOptions{JSONOnly: true})
	if err != nil {
		result = "failure"
		slog.Error("summary model call failed", "error", err,
			"request_id", obsmw.RequestIDFromContext(ctx))
		return nil, err
	}

	var out dto.SummaryResult
	if err := decodeModelJSON(raw, &out); err != nil {
		result = "failure"
		slog.Error("summary output rejected", "error", err,
			"request_id", obsmw.RequestIDFromContext(ctx))
		return nil, fmt.Errorf("%w: %v", domain.ErrModelOutputInvalid, err)
	}
	if out.Overview == "" {
		result = "failure"
		return nil, fmt.Errorf("%w: empty overview", domain.ErrModelOutputInvalid)
	}

	entry := &domain.HistoryEntry{
		IdentityID: identityID,
		Kind:       domain.KindSummary,
		Docs:       doc.Label("Document"),
		Score:      "-",
		Details:    "Summarized",
		Verdict:    "Done",
	}
	if err := s.Ledger.Append(ctx, entry); err != nil {
		result = "failure"
		return nil, err
	}
	return &out, nil
}

func (s *AnalysisServiceImpl) History(ctx context.Context, identityID domain.IdentityID) ([]domain.HistoryEntry, error) {
	return s.Ledger.ListByIdentity(ctx, identityID)
}

// ---- prompts ----

func similarityPrompt(ref, tgt dto.DocumentInput) string {
	var sb strings.Builder
	sb.WriteString("You are a forensic document similarity analyzer.\n")
	sb.WriteString("Compare the reference document against the target document for plagiarism and paraphrasing.\n\n")
	sb.WriteString("Reference document: ")
	sb.WriteString(sideDescription(ref, placeholderRef))
	sb.WriteString("\nTarget document: ")
	sb.WriteString(sideDescription(tgt, placeholderTgt))
	sb.WriteString("\n\nReturn ONLY JSON with this schema:\n")
	sb.WriteString(`{
  "similarity_score": number (0-100),
  "matched_words": integer,
  "total_words": integer,
  "common_phrases": ["string"],
  "exact_match_pct": number (0-100),
  "paraphrase_pct": number (0-100),
  "structural_pct": number (0-100),
  "ref_lang": "string",
  "tgt_lang": "string"
}`)
	sb.WriteString("\nNever include markdown code fences.")
	return sb.String()
}

func webScanPrompt(doc dto.DocumentInput) string {
	var sb strings.Builder
	sb.WriteString("Use web search to find public sources similar to the document below.\n")
	sb.WriteString("Document: ")
	sb.WriteString(sideDescription(doc, "document file attached"))
	sb.WriteString("\n\nReturn ONLY JSON with this schema, sources ordered by descending score:\n")
	sb.WriteString(`{"sources": [{"name": "string", "score": number (0-100)}]}`)
	sb.WriteString("\nReturn {\"sources\": []} when nothing similar exists. Never include markdown code fences.")
	return sb.String()
}

func summaryPrompt(doc dto.DocumentInput) string {
	var sb strings.Builder
	sb.WriteString("Summarize the document below.\n")
	sb.WriteString("Document: ")
	sb.WriteString(sideDescription(doc, "document file attached"))
	sb.WriteString("\n\nReturn ONLY JSON with this schema:\n")
	sb.WriteString(`{"overview": "string", "key_points": ["string"], "conclusion": "string"}`)
	sb.WriteString("\nNever include markdown code fences.")
	return sb.String()
}

func sideDescription(d dto.DocumentInput, placeholder string) string {
	if d.HasFile() {
		return placeholder
	}
	return d.Text
}

// ---- output coercion ----

// decodeModelJSON treats the model text as untrusted: it strips markdown
// fencing, falls back to the outermost JSON object, and unmarshals strictly.
func decodeModelJSON(raw string, v any) error {
	cleaned := stripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return json.Unmarshal([]byte(cleaned[start:end+1]), v)
	}
	return fmt.Errorf("no JSON object in model output")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func similarityVerdict(score float64) string {
	switch {
	case score >= 80:
		return "High"
	case score >= 50:
		return "Moderate"
	default:
		return "Low"
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
