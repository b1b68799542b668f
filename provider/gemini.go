package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

func init() {
	Register("gemini", func(cfg Config) (Client, error) {
		return NewGemini(cfg)
	})
}

// Gemini calls the Gemini generateContent REST API.
type Gemini struct {
	cfg     Config
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewGemini creates a Gemini client. The API key is required.
func NewGemini(cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, NewError("gemini", "new", ErrAPIKeyMissing, false)
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewError("gemini", "new", err, false)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Gemini{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  slog.Default(),
	}, nil
}

// Provider returns "gemini".
func (g *Gemini) Provider() string { return "gemini" }

// Close releases client resources. The HTTP client needs no cleanup.
func (g *Gemini) Close() error { return nil }

// Complete sends one generateContent request, retrying transient
// failures up to MaxRetries times with RetryDelay between attempts.
func (g *Gemini) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = g.cfg.Model
	}
	if model == "" {
		return nil, NewError("gemini", "complete", fmt.Errorf("%w: model not set", ErrInvalidRequest), false)
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("retrying completion",
				"provider", "gemini",
				"attempt", attempt,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return nil, NewError("gemini", "complete", ctx.Err(), false)
			case <-time.After(g.cfg.RetryDelay):
			}
		}

		resp, err := g.generateContent(ctx, model, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (g *Gemini) generateContent(ctx context.Context, model string, req Request) (*Response, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
	}
	if req.SystemPrompt != "" {
		payload.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}
	if req.Temperature != 0 || req.MaxOutputTokens != 0 {
		payload.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError("gemini", "complete", err, false)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(model), url.QueryEscape(g.cfg.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewError("gemini", "complete", err, false)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewError("gemini", "complete", ErrTimeout, true)
		}
		return nil, NewError("gemini", "complete", err, true)
	}
	defer httpResp.Body.Close()

	if err := mapStatus(httpResp); err != nil {
		return nil, err
	}

	var decoded geminiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return nil, NewError("gemini", "complete", fmt.Errorf("decoding response: %w", err), false)
	}

	if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		return nil, NewError("gemini", "complete",
			fmt.Errorf("%w: prompt blocked (%s)", ErrBlocked, decoded.PromptFeedback.BlockReason), false)
	}
	if len(decoded.Candidates) == 0 {
		return nil, NewError("gemini", "complete", ErrEmptyResponse, false)
	}

	candidate := decoded.Candidates[0]
	if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "RECITATION" {
		return nil, NewError("gemini", "complete",
			fmt.Errorf("%w: generation stopped (%s)", ErrBlocked, candidate.FinishReason), false)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return nil, NewError("gemini", "complete", ErrEmptyResponse, false)
	}

	resp := &Response{
		Content:      text.String(),
		Model:        model,
		FinishReason: candidate.FinishReason,
		Duration:     time.Since(start),
	}
	if decoded.UsageMetadata != nil {
		resp.Usage = TokenUsage{
			InputTokens:  decoded.UsageMetadata.PromptTokenCount,
			OutputTokens: decoded.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  decoded.UsageMetadata.TotalTokenCount,
		}
	}
	return resp, nil
}

// mapStatus translates non-2xx HTTP statuses into sentinel errors.
func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return NewError("gemini", "complete", ErrUnauthorized, false)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewError("gemini", "complete", ErrRateLimited, true)
	case resp.StatusCode >= 500:
		return NewError("gemini", "complete", ErrUnavailable, true)
	case resp.StatusCode == http.StatusBadRequest:
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return NewError("gemini", "complete",
			fmt.Errorf("%w: %s", ErrInvalidRequest, strings.TrimSpace(string(errorBody))), false)
	default:
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return NewError("gemini", "complete",
			fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(errorBody))), false)
	}
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate    `json:"candidates"`
	PromptFeedback *geminiFeedback      `json:"promptFeedback,omitempty"`
	UsageMetadata  *geminiUsageMetadata `json:"usageMetadata,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiFeedback struct {
	BlockReason string `json:"blockReason"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}
