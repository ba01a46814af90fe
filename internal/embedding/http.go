package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Request shapes understood by HTTPAdapter.
const (
	FormatOllama = "ollama"
	FormatGemini = "gemini"
)

const defaultHTTPTimeout = 60 * time.Second

// HTTPConfig configures a JSON-over-HTTP embedding endpoint.
type HTTPConfig struct {
	URL    string
	Model  string
	APIKey string
	// Format selects the request body: FormatOllama sends {model, prompt}
	// and falls back to {model, input}; FormatGemini sends
	// {model, content: {parts: [{text}]}}.
	Format            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// HTTPAdapter posts text to an Ollama- or Gemini-style embedding endpoint.
type HTTPAdapter struct {
	url     string
	model   string
	apiKey  string
	format  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPAdapter creates an adapter for cfg. A zero RequestsPerSecond
// disables rate limiting.
func NewHTTPAdapter(cfg HTTPConfig) *HTTPAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	format := cfg.Format
	if format == "" {
		format = FormatOllama
	}
	a := &HTTPAdapter{
		url:    cfg.URL,
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		format: format,
		client: &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return a
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

// CreateEmbeddings returns the vector for text. For the Ollama shape an
// empty vector from the prompt body is retried once with the input body.
func (a *HTTPAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	if a.format == FormatGemini {
		return a.post(ctx, map[string]any{
			"model":   a.model,
			"content": geminiContent{Parts: []geminiPart{{Text: text}}},
		})
	}

	vec, err := a.post(ctx, map[string]any{"model": a.model, "prompt": text})
	if err != nil {
		return nil, err
	}
	if len(vec) > 0 {
		return vec, nil
	}
	return a.post(ctx, map[string]any{"model": a.model, "input": text})
}

func (a *HTTPAdapter) post(ctx context.Context, body map[string]any) ([]float32, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		if a.format == FormatGemini {
			req.Header.Set("x-goog-api-key", a.apiKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+a.apiKey)
		}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding endpoint returned %s", resp.Status)
	}
	return decodeVector(payload)
}

// decodeVector accepts {"embedding": [...]}, {"embedding": {"value": [...]}},
// {"embedding": {"values": [...]}} and {"data": [{"embedding": [...]}]}.
func decodeVector(payload []byte) ([]float32, error) {
	var out struct {
		Embedding json.RawMessage `json:"embedding"`
		Data      []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	raw := bytes.TrimSpace(out.Embedding)
	switch {
	case len(raw) > 0 && raw[0] == '[':
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err != nil {
			return nil, fmt.Errorf("failed to decode embedding vector: %w", err)
		}
		return vec, nil
	case len(raw) > 0 && raw[0] == '{':
		var obj struct {
			Value  []float32 `json:"value"`
			Values []float32 `json:"values"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode embedding object: %w", err)
		}
		if len(obj.Value) > 0 {
			return obj.Value, nil
		}
		return obj.Values, nil
	case len(out.Data) > 0:
		return out.Data[0].Embedding, nil
	}
	return nil, nil
}
