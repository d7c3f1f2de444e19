package transform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"editlab/internal/domain"
	"editlab/internal/infra"
)

// ErrMissingAPIKey is returned when the client is constructed without
// credentials. The key only ever arrives through configuration.
var ErrMissingAPIKey = errors.New("gemini: api key is required")

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash-image"
	defaultTimeout = 60 * time.Second
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client talks to the Gemini generateContent endpoint. It is safe for
// concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

var _ Transformer = (*Client)(nil)

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may
// provide a nil HTTP client; a reusable one with sensible timeouts will be
// created.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// Transform sends the edit to Gemini and returns the first image the model
// produces. Requests are validated before any bytes leave the process.
func (c *Client) Transform(ctx context.Context, req domain.EditRequest) (domain.EditResult, error) {
	if err := req.Validate(); err != nil {
		return domain.EditResult{}, err
	}

	body, err := json.Marshal(c.buildPayload(req))
	if err != nil {
		return domain.EditResult{}, domain.Provider("marshal request", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.EditResult{}, domain.Provider("create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.EditResult{}, domain.Transport("call gemini", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.EditResult{}, c.classifyFailure(resp)
	}

	var out geminiGenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.EditResult{}, domain.EmptyResponse("decode gemini response", err)
	}

	result, err := extractResult(out)
	if err != nil {
		return domain.EditResult{}, err
	}

	c.logger.Debug().
		Str("model", c.model).
		Str("mime", result.MIMEType).
		Int("bytes", len(result.ImageBytes)).
		Msg("transform: edit completed")

	return result, nil
}

func (c *Client) buildPayload(req domain.EditRequest) geminiGenerateContentRequest {
	parts := []geminiPart{{Text: req.Prompt}}
	if req.Mode == domain.ModeImageToImage && req.SourceImage != nil {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MimeType: req.SourceImage.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(req.SourceImage.Bytes),
			},
		})
	}
	return geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}
}

// classifyFailure maps a non-2xx response onto the error taxonomy. A
// structured body drives the decision; anything unstructured is treated as
// a transport failure so the retry policy gets another shot at it.
func (c *Client) classifyFailure(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var apiErr geminiErrorResponse
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || isQuotaFailure(apiErr.Error.Status, apiErr.Error.Message):
			return domain.RateLimit(fmt.Sprintf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message))
		case isSafetyFailure(apiErr.Error.Message):
			return domain.SafetyBlock(apiErr.Error.Message)
		default:
			return domain.Provider(fmt.Sprintf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message), nil)
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.RateLimit(fmt.Sprintf("gemini status %d", resp.StatusCode))
	}
	if body := strings.TrimSpace(string(data)); body != "" {
		return domain.Transport(fmt.Sprintf("gemini status %d: %s", resp.StatusCode, body), nil)
	}
	return domain.Transport(fmt.Sprintf("gemini status %d", resp.StatusCode), nil)
}

func extractResult(out geminiGenerateContentResponse) (domain.EditResult, error) {
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return domain.EditResult{}, domain.SafetyBlock(fmt.Sprintf("prompt blocked: %s", out.PromptFeedback.BlockReason))
	}

	var refusal string
	for _, candidate := range out.Candidates {
		if isBlockedFinish(candidate.FinishReason) {
			return domain.EditResult{}, domain.SafetyBlock(fmt.Sprintf("candidate blocked: %s", candidate.FinishReason))
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return domain.EditResult{}, domain.EmptyResponse("decode inline data", err)
				}
				mimeType := part.InlineData.MimeType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return domain.EditResult{ImageBytes: data, MIMEType: mimeType}, nil
			}
			if refusal == "" && strings.TrimSpace(part.Text) != "" {
				refusal = strings.TrimSpace(part.Text)
			}
		}
	}

	if refusal != "" {
		return domain.EditResult{}, domain.Refusal(refusal)
	}
	return domain.EditResult{}, domain.EmptyResponse("no image in response", nil)
}

func isQuotaFailure(status, message string) bool {
	if strings.EqualFold(status, "RESOURCE_EXHAUSTED") {
		return true
	}
	lower := strings.ToLower(message)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit")
}

func isSafetyFailure(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "safety") || strings.Contains(lower, "blocked") || strings.Contains(lower, "prohibited")
}

func isBlockedFinish(reason string) bool {
	switch strings.ToUpper(strings.TrimSpace(reason)) {
	case "SAFETY", "IMAGE_SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST":
		return true
	}
	return false
}
