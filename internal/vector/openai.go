package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/muninn/internal/apperr"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures the OpenAI embedding client. Zero values fall
// back to the package defaults.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	Dimension int
	// BaseURL points at an OpenAI-compatible endpoint. Tests and local
	// inference servers override it.
	BaseURL string
	// RequestsPerSecond throttles outgoing embedding calls.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	apiKey    string
	model     string
	dimension int
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedding client. The API key is required.
func NewOpenAIEmbedder(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vector: openai api key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = DefaultDimension
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = 5
	}

	e := &OpenAIEmbedder{
		apiKey:    cfg.APIKey,
		model:     model,
		dimension: dimension,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    logger,
	}

	logger.Info("openai embedder initialized",
		slog.String("model", model),
		slog.Int("dimension", dimension))
	return e, nil
}

// Dimension returns the expected vector length for the configured model.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// Embed generates an embedding for the text. It rejects empty input, and
// validates the response dimension and that the vector is not all zeros,
// which the API has been seen to return on quota exhaustion.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("vector: %w: text must not be empty", apperr.ErrValidation)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("vector: rate limit wait: %w", err)
	}

	reqBody, err := json.Marshal(map[string]any{
		"model": e.model,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("vector: marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("vector: build embed request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vector: %w: openai request: %v", apperr.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vector: read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vector: openai embeddings returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("vector: parse embed response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("vector: openai returned empty data")
	}

	embedding := result.Data[0].Embedding
	if len(embedding) != e.dimension {
		return nil, fmt.Errorf("vector: invalid embedding dimension: %d, expected %d", len(embedding), e.dimension)
	}
	if allZeros(embedding) {
		return nil, fmt.Errorf("vector: embedding is all zeros, possible quota exhaustion")
	}

	e.logger.Debug("generated embedding", slog.Int("text_len", len(text)))
	return embedding, nil
}

func allZeros(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
