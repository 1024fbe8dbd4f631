package dto

// DocumentInput is one side of a submission: an uploaded file, raw text, or
// nothing. Files carry their declared media type and original filename.
type DocumentInput struct {
	Filename string
	MIMEType string
	Data     []byte
	Text     string
}

func (d DocumentInput) HasFile() bool { return len(d.Data) > 0 }

func (d DocumentInput) Present() bool { return d.HasFile() || d.Text != "" }

// Label is the human-readable document label recorded in history.
func (d DocumentInput) Label(fallback string) string {
	if d.HasFile() && d.Filename != "" {
		return d.Filename
	}
	return fallback
}

type SimilarityResult struct {
	SimilarityScore float64  `json:"similarity_score"`
	MatchedWords    int      `json:"matched_words"`
	TotalWords      int      `json:"total_words"`
	CommonPhrases   []string `json:"common_phrases"`
	ExactMatchPct   float64  `json:"exact_match_pct"`
	ParaphrasePct   float64  `json:"paraphrase_pct"`
	StructuralPct   float64  `json:"structural_pct"`
	RefLang         string   `json:"ref_lang"`
	TgtLang         string   `json:"tgt_lang"`
	Verdict         string   `json:"verdict"`
}

type WebSource struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type WebScanResult struct {
	Sources []WebSource `json:"sources"`
	Verdict string      `json:"verdict"`
}

type SummaryResult struct {
	Overview   string   `json:"overview"`
	KeyPoints  []string `json:"key_points"`
	Conclusion string   `json:"conclusion"`
}
