package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/application/port"
	"github.com/garyjia/liquidagov/internal/domain/entity"
)

// Config holds the extractor settings
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	MaxPages int
	Detail   string // low, high or auto
}

// Extractor implements port.Extractor with an OpenAI vision model
type Extractor struct {
	client     *openai.Client
	rasterizer port.Rasterizer
	prompts    *PromptConfig
	cfg        Config
	logger     *zap.Logger
}

// NewExtractor creates an OpenAI-backed extractor. PDFs are converted to page
// images with rasterizer before being sent; a nil rasterizer rejects PDFs.
func NewExtractor(cfg Config, prompts *PromptConfig, rasterizer port.Rasterizer, logger *zap.Logger) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		client:     openai.NewClientWithConfig(clientCfg),
		rasterizer: rasterizer,
		prompts:    prompts,
		cfg:        cfg,
		logger:     logger,
	}
}

// Extract sends the available documents in one vision request and decodes the six budget fields
func (e *Extractor) Extract(ctx context.Context, invoice, commitment *entity.Document) (*entity.ExtractionResult, error) {
	if invoice == nil && commitment == nil {
		return nil, entity.NewExtractionError("validate", entity.ErrNothingToExtract)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	var (
		labels []string
		images []openai.ChatMessagePart
	)
	for _, d := range []struct {
		label string
		doc   *entity.Document
	}{
		{"Nota Fiscal", invoice},
		{"Nota de Empenho", commitment},
	} {
		if d.doc == nil {
			continue
		}
		parts, err := e.imageParts(ctx, d.doc)
		if err != nil {
			return nil, err
		}
		labels = append(labels, d.label)
		images = append(images, parts...)
	}

	prompt, err := renderTemplate(e.prompts.Extraction.UserTemplate, map[string]interface{}{
		"Documents": labels,
	})
	if err != nil {
		return nil, entity.NewExtractionError("prompt", err)
	}

	userParts := append(images, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt,
	})

	e.logger.Info("Extracting budget fields with Vision API",
		zap.Strings("documents", labels),
		zap.Int("images", len(images)),
		zap.String("model", e.cfg.Model))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.prompts.Extraction.MaxTokens,
		Temperature: e.prompts.Extraction.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: e.prompts.Extraction.System,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: userParts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("Vision API call failed", zap.Error(err))
		return nil, entity.NewExtractionError("complete", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, entity.NewExtractionError("complete", entity.ErrEmptyExtraction)
	}

	result, err := decodeResult(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Error("Failed to parse Vision API response",
			zap.Error(err),
			zap.String("content", resp.Choices[0].Message.Content))
		return nil, entity.NewExtractionError("decode", err)
	}

	e.logger.Info("Budget fields extracted",
		zap.String("numero_empenho", result.NumeroEmpenho),
		zap.String("valor_nota", result.ValorNota),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return result, nil
}

// imageParts turns a document into image message parts, rasterizing PDFs page by page
func (e *Extractor) imageParts(ctx context.Context, doc *entity.Document) ([]openai.ChatMessagePart, error) {
	switch {
	case doc.IsImage():
		return []openai.ChatMessagePart{e.imagePart(doc.MimeType, doc.Content)}, nil
	case doc.IsPDF():
		if e.rasterizer == nil {
			return nil, entity.NewExtractionError("rasterize", fmt.Errorf("no PDF rasterizer for %s", doc.Name))
		}
		pages, err := e.rasterizer.Rasterize(ctx, doc, e.cfg.MaxPages)
		if err != nil {
			return nil, entity.NewExtractionError("rasterize", err)
		}
		parts := make([]openai.ChatMessagePart, 0, len(pages))
		for _, page := range pages {
			parts = append(parts, e.imagePart("image/jpeg", page))
		}
		return parts, nil
	default:
		return nil, entity.NewExtractionError("validate", fmt.Errorf("unsupported document type %q for %s", doc.MimeType, doc.Name))
	}
}

func (e *Extractor) imagePart(mimeType string, data []byte) openai.ChatMessagePart {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	detail := openai.ImageURLDetailHigh
	if e.cfg.Detail != "" {
		detail = openai.ImageURLDetail(e.cfg.Detail)
	}
	return openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
			Detail: detail,
		},
	}
}

// decodeResult parses the model answer, falling back to the first embedded JSON object
func decodeResult(content string) (*entity.ExtractionResult, error) {
	var fields extractedFields
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		jsonStr := extractJSON(content)
		if jsonStr == "" {
			return nil, fmt.Errorf("no JSON object in response: %w", err)
		}
		if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return &entity.ExtractionResult{
		Pregao:         strings.TrimSpace(string(fields.Pregao)),
		FonteRecurso:   strings.TrimSpace(string(fields.FonteRecurso)),
		NumeroProcesso: strings.TrimSpace(string(fields.NumeroProcesso)),
		NumeroEmpenho:  strings.TrimSpace(string(fields.NumeroEmpenho)),
		ValorNota:      strings.TrimSpace(string(fields.ValorNota)),
		Fornecedor:     strings.TrimSpace(string(fields.Fornecedor)),
	}, nil
}

// DisabledExtractor is used when no API key is configured
type DisabledExtractor struct{}

// Extract always fails with ErrExtractionDisabled
func (DisabledExtractor) Extract(ctx context.Context, invoice, commitment *entity.Document) (*entity.ExtractionResult, error) {
	if invoice == nil && commitment == nil {
		return nil, entity.NewExtractionError("validate", entity.ErrNothingToExtract)
	}
	return nil, entity.NewExtractionError("configure", entity.ErrExtractionDisabled)
}
