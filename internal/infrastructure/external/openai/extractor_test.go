package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/domain/entity"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func completionServer(t *testing.T, content string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

type fakeRasterizer struct {
	pages [][]byte
	err   error
	calls int
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, doc *entity.Document, maxPages int) ([][]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) > maxPages {
		return f.pages[:maxPages], nil
	}
	return f.pages, nil
}

func newTestExtractor(srv *httptest.Server, r *fakeRasterizer) *Extractor {
	cfg := Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "gpt-4o", MaxPages: 1}
	if r == nil {
		return NewExtractor(cfg, nil, nil, zap.NewNop())
	}
	return NewExtractor(cfg, nil, r, zap.NewNop())
}

func pngDoc() *entity.Document {
	return &entity.Document{Name: "empenho.png", MimeType: "image/png", Content: []byte{0x89, 'P', 'N', 'G'}}
}

func TestExtract_CommitmentOnly(t *testing.T) {
	var req capturedRequest
	srv := completionServer(t, `{"numeroEmpenho":"2024NE000123","valorNota":null,"pregao":""}`, &req)
	defer srv.Close()

	result, err := newTestExtractor(srv, nil).Extract(context.Background(), nil, pngDoc())
	require.NoError(t, err)

	assert.Equal(t, "2024NE000123", result.NumeroEmpenho)
	assert.Empty(t, result.ValorNota)
	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, "json_object", req.ResponseFormat.Type)

	require.Len(t, req.Messages, 2)
	user := string(req.Messages[1].Content)
	assert.Contains(t, user, "data:image/png;base64,")
	assert.Contains(t, user, "Nota de Empenho")
	assert.NotContains(t, user, "Nota Fiscal")
}

func TestExtract_RasterizesPDF(t *testing.T) {
	var req capturedRequest
	srv := completionServer(t, "```json\n{\"valorNota\": 1234.56, \"fornecedor\": \"Empresa {LTDA}\"}\n```", &req)
	defer srv.Close()

	r := &fakeRasterizer{pages: [][]byte{{0xFF, 0xD8}, {0xFF, 0xD9}}}
	invoice := &entity.Document{Name: "nf.pdf", MimeType: "application/pdf", Content: []byte("%PDF")}

	result, err := newTestExtractor(srv, r).Extract(context.Background(), invoice, pngDoc())
	require.NoError(t, err)

	assert.Equal(t, "1234.56", result.ValorNota)
	assert.Equal(t, "Empresa {LTDA}", result.Fornecedor)
	assert.Equal(t, 1, r.calls)

	user := string(req.Messages[1].Content)
	assert.Equal(t, 1, strings.Count(user, "data:image/jpeg;base64,"), "max pages honored")
	assert.Contains(t, user, "Nota Fiscal e/ou Nota de Empenho")
}

func TestExtract_Failures(t *testing.T) {
	t.Run("no documents", func(t *testing.T) {
		srv := completionServer(t, "{}", nil)
		defer srv.Close()

		_, err := newTestExtractor(srv, nil).Extract(context.Background(), nil, nil)
		assert.ErrorIs(t, err, entity.ErrNothingToExtract)
	})

	t.Run("unparseable answer", func(t *testing.T) {
		srv := completionServer(t, "não encontrei nada", nil)
		defer srv.Close()

		_, err := newTestExtractor(srv, nil).Extract(context.Background(), pngDoc(), nil)
		var exErr *entity.ExtractionError
		require.True(t, errors.As(err, &exErr))
		assert.Equal(t, "decode", exErr.Op)
	})

	t.Run("empty answer", func(t *testing.T) {
		srv := completionServer(t, "  ", nil)
		defer srv.Close()

		_, err := newTestExtractor(srv, nil).Extract(context.Background(), pngDoc(), nil)
		assert.ErrorIs(t, err, entity.ErrEmptyExtraction)
	})

	t.Run("transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newTestExtractor(srv, nil).Extract(context.Background(), pngDoc(), nil)
		var exErr *entity.ExtractionError
		require.True(t, errors.As(err, &exErr))
		assert.Equal(t, "complete", exErr.Op)
	})

	t.Run("rasterizer failure", func(t *testing.T) {
		srv := completionServer(t, "{}", nil)
		defer srv.Close()

		r := &fakeRasterizer{err: errors.New("corrupt pdf")}
		invoice := &entity.Document{Name: "nf.pdf", MimeType: "application/pdf", Content: []byte("%PDF")}
		_, err := newTestExtractor(srv, r).Extract(context.Background(), invoice, nil)

		var exErr *entity.ExtractionError
		require.True(t, errors.As(err, &exErr))
		assert.Equal(t, "rasterize", exErr.Op)
	})

	t.Run("unsupported type", func(t *testing.T) {
		srv := completionServer(t, "{}", nil)
		defer srv.Close()

		doc := &entity.Document{Name: "nota.txt", MimeType: "text/plain", Content: []byte("x")}
		_, err := newTestExtractor(srv, nil).Extract(context.Background(), doc, nil)
		assert.Error(t, err)
	})
}

func TestDisabledExtractor(t *testing.T) {
	_, err := DisabledExtractor{}.Extract(context.Background(), pngDoc(), nil)
	assert.ErrorIs(t, err, entity.ErrExtractionDisabled)

	_, err = DisabledExtractor{}.Extract(context.Background(), nil, nil)
	assert.ErrorIs(t, err, entity.ErrNothingToExtract)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", `{"a":"b"}`, `{"a":"b"}`},
		{"markdown", "```json\n{\"a\":{\"b\":1}}\n```", `{"a":{"b":1}}`},
		{"brace in string", `ok {"a":"}"} trailing`, `{"a":"}"}`},
		{"escaped quote", `{"a":"x\"}"}`, `{"a":"x\"}"}`},
		{"unterminated", `{"a":1`, ""},
		{"none", "nothing here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.content))
		})
	}
}

func TestLoadPrompts(t *testing.T) {
	defaults, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Contains(t, defaults.Extraction.UserTemplate, "numeroEmpenho")

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extraction:\n  temperature: 0.3\n  system: \"custom\"\n"), 0644))

	p, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, float32(0.3), p.Extraction.Temperature)
	assert.Equal(t, "custom", p.Extraction.System)
	assert.Equal(t, defaults.Extraction.UserTemplate, p.Extraction.UserTemplate)

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRenderTemplate(t *testing.T) {
	out, err := renderTemplate(defaultUserTemplate, map[string]interface{}{"Documents": []string{"Nota Fiscal"}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Analise as imagens fornecidas (Nota Fiscal)."))
}
