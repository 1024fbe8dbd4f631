package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Part is one ordered unit of model input: plain text or an inline binary
// payload carried as base64 with its media type.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

func TextPart(text string) Part { return Part{Text: text} }

func DataPart(mimeType string, raw []byte) Part {
	return Part{InlineData: &InlineData{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}}
}

type GenerateOptions struct {
	// JSONOnly asks the API for a strict application/json response.
	JSONOnly bool
	// WebSearch enables search grounding. The API rejects a forced JSON MIME
	// type alongside tools, so callers combine this with a JSON-only prompt.
	WebSearch bool
}

type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	Tools            []tool            `json:"tools,omitempty"`
}

type content struct {
	Parts []Part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the ordered parts to the model and returns its text payload.
// The response is untrusted text; callers parse and validate it themselves.
func (c *Client) Generate(ctx context.Context, parts []Part, opts GenerateOptions) (string, error) {
	body := generateRequest{
		Contents: []content{{Parts: parts}},
	}
	if opts.JSONOnly {
		body.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}
	if opts.WebSearch {
		body.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	slurp, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("model call failed: status=%d body=%s", resp.StatusCode, truncate(string(slurp), 512))
	}

	var out generateResponse
	if err := json.Unmarshal(slurp, &out); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("model returned no candidates")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("model returned empty candidate")
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
