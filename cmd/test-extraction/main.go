package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/liquidagov/internal/domain/entity"
	"github.com/garyjia/liquidagov/internal/infrastructure/document"
	"github.com/garyjia/liquidagov/internal/infrastructure/external/openai"
)

func main() {
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	invoicePath := flag.String("invoice", "", "Path to the Nota Fiscal (PDF or image)")
	commitmentPath := flag.String("commitment", "", "Path to the Nota de Empenho (PDF or image)")
	model := flag.String("model", "gpt-4o", "Vision model")
	promptsPath := flag.String("prompts", "", "Path to prompts.yaml (built-in prompts when empty)")
	timeout := flag.Duration("timeout", 90*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	_ = gotenv.Load()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-extraction --invoice nf.pdf [--commitment ne.pdf] [--model gpt-4o]\n")
		os.Exit(1)
	}
	if *invoicePath == "" && *commitmentPath == "" {
		fmt.Fprintf(os.Stderr, "ERROR: provide --invoice and/or --commitment\n")
		os.Exit(1)
	}

	invoice, err := readDocument(*invoicePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	commitment, err := readDocument(*commitmentPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	prompts, err := openai.LoadPrompts(*promptsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to load prompts: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Extraction Test ===")
	fmt.Printf("  Model: %s\n", *model)
	fmt.Printf("  API key length: %d chars\n", len(*apiKey))
	fmt.Printf("  Timeout: %v\n", *timeout)
	printDocument("Invoice", invoice)
	printDocument("Commitment", commitment)
	fmt.Println()

	extractor := openai.NewExtractor(openai.Config{
		APIKey:  *apiKey,
		Model:   *model,
		Timeout: *timeout,
	}, prompts, document.NewRasterizer(0, 0, logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	result, err := extractor.Extract(ctx, invoice, commitment)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Extraction failed after %v: %v\n", elapsed, err)
		os.Exit(1)
	}

	fmt.Printf("✓ Extraction completed in %v\n\n", elapsed)
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}

// readDocument loads a file as a Document; an empty path yields nil
func readDocument(path string) (*entity.Document, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(content)
	}
	return &entity.Document{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Content:  content,
	}, nil
}

func printDocument(label string, doc *entity.Document) {
	if doc == nil {
		fmt.Printf("  %s: -\n", label)
		return
	}
	fmt.Printf("  %s: %s (%s, %d bytes)\n", label, doc.Name, doc.MimeType, doc.Size())
}
