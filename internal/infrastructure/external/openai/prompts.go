package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompts and model parameters used by the extractor
type PromptConfig struct {
	Extraction struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"extraction"`
}

const defaultSystemPrompt = "Você é um especialista em documentos orçamentários do governo federal brasileiro " +
	"(Nota Fiscal e Nota de Empenho). Responda sempre com um objeto JSON válido."

const defaultUserTemplate = `Analise as imagens fornecidas ({{join .Documents " e/ou "}}).
Extraia as seguintes informações se estiverem visíveis:
- Número do Pregão (pregao)
- Fonte de Recurso (fonteRecurso)
- Número do Processo Administrativo (numeroProcesso)
- Número do Empenho (numeroEmpenho)
- Valor Total da Nota (valorNota)
- Nome do Fornecedor (fornecedor)

Responda APENAS com um objeto JSON com essas chaves. Se um campo não for encontrado, deixe-o como string vazia ou null.`

// DefaultPrompts returns the built-in Portuguese extraction prompt
func DefaultPrompts() *PromptConfig {
	var p PromptConfig
	p.Extraction.Temperature = 0.1
	p.Extraction.MaxTokens = 1024
	p.Extraction.System = defaultSystemPrompt
	p.Extraction.UserTemplate = defaultUserTemplate
	return &p
}

// LoadPrompts loads prompt configuration from a YAML file. Keys missing from
// the file keep their built-in values; an empty path returns the defaults.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	prompts := DefaultPrompts()
	if promptsPath == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	return prompts, nil
}

var templateFuncs = template.FuncMap{
	"join": func(items []string, sep string) string {
		var buf bytes.Buffer
		for i, item := range items {
			if i > 0 {
				buf.WriteString(sep)
			}
			buf.WriteString(item)
		}
		return buf.String()
	},
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Funcs(templateFuncs).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
