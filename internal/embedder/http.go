package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL points at a locally-run sentence-transformer-style
	// embedding server.
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel       = "all-minilm-l6-v2"
	DefaultDimensions  = 384
	DefaultHTTPTimeout = 30 * time.Second

	apiPathEmbeddings = "/api/embeddings"
)

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithBaseURL overrides the embedding server's base URL.
func WithBaseURL(url string) HTTPOption { return func(p *HTTPProvider) { p.baseURL = url } }

// WithModel overrides the model name sent in each request.
func WithModel(model string) HTTPOption { return func(p *HTTPProvider) { p.model = model } }

// WithDimensions overrides the expected embedding dimensionality.
func WithDimensions(dims int) HTTPOption { return func(p *HTTPProvider) { p.dims = dims } }

// WithHTTPTimeout overrides the request timeout.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(p *HTTPProvider) { p.client.Timeout = d }
}

// HTTPProvider embeds text via a local HTTP embedding server exposing an
// Ollama-style /api/embeddings endpoint.
type HTTPProvider struct {
	baseURL string
	model   string
	dims    int
	client  *http.Client
}

// NewHTTPProvider constructs an HTTPProvider with sensible defaults,
// overridable via options.
func NewHTTPProvider(opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		dims:    DefaultDimensions,
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed implements Provider.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("embedder: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+apiPathEmbeddings, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedder: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedder: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedder: server returned %d: %s", resp.StatusCode, data)
	}

	var out embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedder: decode response: %w", err)
	}
	return out.Embedding, nil
}

// Dimensions implements Provider.
func (p *HTTPProvider) Dimensions() int { return p.dims }
