package openai

import (
	"encoding/json"
	"strings"
)

// extractedFields mirrors the JSON object requested from the model
type extractedFields struct {
	Pregao         flexString `json:"pregao"`
	FonteRecurso   flexString `json:"fonteRecurso"`
	NumeroProcesso flexString `json:"numeroProcesso"`
	NumeroEmpenho  flexString `json:"numeroEmpenho"`
	ValorNota      flexString `json:"valorNota"`
	Fornecedor     flexString `json:"fornecedor"`
}

// flexString accepts a JSON string, number or null. Models occasionally
// answer amounts as bare numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*f = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = flexString(n.String())
	}
	return nil
}

// extractJSON extracts the first JSON object from a response that wraps it in prose or markdown
func extractJSON(content string) string {
	start := findJSONStart(content)
	if start < 0 {
		return ""
	}
	end := findJSONEnd(content, start)
	if end <= start {
		return ""
	}
	return content[start:end]
}

// findJSONStart finds the start of JSON content in a string
func findJSONStart(content string) int {
	return strings.IndexByte(content, '{')
}

// findJSONEnd finds the end of the JSON object starting at start, honoring strings and escapes
func findJSONEnd(content string, start int) int {
	if start < 0 || start >= len(content) || content[start] != '{' {
		return -1
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(content); i++ {
		c := content[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}

	return -1
}
