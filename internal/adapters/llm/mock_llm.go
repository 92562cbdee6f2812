package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockLLM answers every prompt with a small, well-formed slide response.
// Useful for local development without an API key.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	topic := "your topic"
	if i := strings.LastIndex(prompt, "User Request: "); i >= 0 {
		line := prompt[i+len("User Request: "):]
		if j := strings.IndexByte(line, '\n'); j >= 0 {
			line = line[:j]
		}
		if line != "" {
			topic = line
		}
	}

	resp := map[string]any{
		"message": fmt.Sprintf("I've created a presentation about %s.", topic),
		"slides": []map[string]string{
			{"title": topic, "content": ""},
			{"title": "Introduction", "content": fmt.Sprintf("An overview of %s.", topic)},
			{"title": "Key Points", "content": "• First point\n• Second point\n• Third point"},
			{"title": "Applications", "content": fmt.Sprintf("Where %s is used today.", topic)},
			{"title": "Conclusion", "content": "Summary and next steps."},
		},
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
