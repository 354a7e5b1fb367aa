package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewOllamaProvider_Defaults(t *testing.T) {
	p := NewOllamaProvider()

	if p.baseURL != DefaultOllamaURL {
		t.Errorf("baseURL = %s, want %s", p.baseURL, DefaultOllamaURL)
	}
	if p.model != DefaultModel {
		t.Errorf("model = %s, want %s", p.model, DefaultModel)
	}
	if p.dimensions != DefaultDimensions {
		t.Errorf("dimensions = %d, want %d", p.dimensions, DefaultDimensions)
	}
}

func TestNewOllamaProvider_WithOptions(t *testing.T) {
	p := NewOllamaProvider(
		WithBaseURL("http://custom:8080"),
		WithModel("nomic-embed-text"),
		WithDimensions(768),
		WithTimeout(time.Minute),
	)

	if p.baseURL != "http://custom:8080" {
		t.Errorf("baseURL = %s", p.baseURL)
	}
	if p.ModelName() != "nomic-embed-text" {
		t.Errorf("model = %s", p.ModelName())
	}
	if p.Dimensions() != 768 {
		t.Errorf("dimensions = %d", p.Dimensions())
	}
	if p.client.Timeout != time.Minute {
		t.Errorf("timeout = %v", p.client.Timeout)
	}
}

func TestOllamaProvider_EmbedText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ollamaEmbeddingsPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Prompt != "attention is all you need" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer ts.Close()

	p := NewOllamaProvider(WithBaseURL(ts.URL), WithDimensions(3))
	vec, err := p.EmbedText(context.Background(), "attention is all you need")
	if err != nil {
		t.Fatalf("EmbedText failed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("vec = %v", vec)
	}
}

func TestOllamaProvider_EmbedText_DimensionMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float32{0.1, 0.2}})
	}))
	defer ts.Close()

	p := NewOllamaProvider(WithBaseURL(ts.URL), WithDimensions(3))
	if _, err := p.EmbedText(context.Background(), "text"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestOllamaProvider_EmbedText_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	p := NewOllamaProvider(WithBaseURL(ts.URL))
	_, err := p.EmbedText(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("error = %v, want status in message", err)
	}
}

func TestOllamaProvider_HasModel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ollamaTagsPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"all-minilm:l6-v2"},{"name":"llama3"}]}`))
	}))
	defer ts.Close()

	p := NewOllamaProvider(WithBaseURL(ts.URL))
	ok, err := p.HasModel(context.Background())
	if err != nil {
		t.Fatalf("HasModel failed: %v", err)
	}
	if !ok {
		t.Error("expected model to be present")
	}

	p2 := NewOllamaProvider(WithBaseURL(ts.URL), WithModel("missing"))
	ok, err = p2.HasModel(context.Background())
	if err != nil {
		t.Fatalf("HasModel failed: %v", err)
	}
	if ok {
		t.Error("expected model to be absent")
	}
}

func TestPaperText(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		summary  string
		expected string
	}{
		{
			name:     "title and summary",
			title:    "Attention Is All You Need",
			summary:  "We propose the Transformer.",
			expected: "Attention Is All You Need. We propose the Transformer.",
		},
		{
			name:     "title only",
			title:    "Attention Is All You Need",
			expected: "Attention Is All You Need",
		},
		{
			name:     "summary only",
			summary:  "We propose the Transformer.",
			expected: "We propose the Transformer.",
		},
		{
			name:     "whitespace trimmed",
			title:    "  A Title  ",
			summary:  "  An abstract.  ",
			expected: "A Title. An abstract.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PaperText(tt.title, tt.summary); got != tt.expected {
				t.Errorf("PaperText() = %q, want %q", got, tt.expected)
			}
		})
	}

	t.Run("long text truncated", func(t *testing.T) {
		long := strings.Repeat("x", MaxTextLength+100)
		if got := PaperText("", long); len(got) != MaxTextLength {
			t.Errorf("len = %d, want %d", len(got), MaxTextLength)
		}
	})
}

func TestMock_Deterministic(t *testing.T) {
	m := NewMock(8)
	a, _ := m.EmbedText(context.Background(), "same text")
	b, _ := m.EmbedText(context.Background(), "same text")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("mock embeddings must be deterministic")
		}
	}
	if len(a) != 8 {
		t.Errorf("len = %d, want 8", len(a))
	}
}

func TestProviderInterfaces(t *testing.T) {
	var _ Provider = (*OllamaProvider)(nil)
	var _ Provider = (*Mock)(nil)
}
