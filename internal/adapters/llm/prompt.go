package llm

import (
	"encoding/json"
	"strings"

	"github.com/piyuindia4/ai-slides/internal/domain"
)

const systemPrompt = `You are an AI assistant that helps create PowerPoint presentations.
When a user provides a topic or request, generate structured slide content in the following JSON format:
{
  "message": "Brief response to user",
  "slides": [
    {
      "title": "Slide Title",
      "content": "Slide content with bullet points or paragraphs"
    }
  ]
}

Rules:
- Generate 5-8 slides for a complete presentation
- Keep titles concise and impactful
- Content should be clear, professional, and well-structured
- Use bullet points when appropriate
- Include an introduction and conclusion slide
- Respond ONLY with valid JSON (no markdown, no code blocks)`

// maxHistoryExchanges limits the conversation context sent with a generate
// request to the most recent prior exchanges.
const maxHistoryExchanges = 3

// BuildGeneratePrompt combines the system instruction, the topic, and at
// most the three most recent prior messages.
func BuildGeneratePrompt(topic string, history []domain.Message) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nUser Request: ")
	b.WriteString(topic)

	if len(history) > 0 {
		recent := history
		if len(recent) > maxHistoryExchanges {
			recent = recent[len(recent)-maxHistoryExchanges:]
		}
		ctxJSON, err := json.MarshalIndent(recent, "", "  ")
		if err == nil {
			b.WriteString("\n\nPrevious context:\n")
			b.Write(ctxJSON)
		}
	}

	return b.String()
}

// BuildRevisePrompt includes the full current deck verbatim and asks for the
// complete updated deck. Partial-deck responses are not a supported
// contract; the normalizer treats an empty sequence as a format failure.
func BuildRevisePrompt(instruction string, deck domain.Deck) string {
	deckJSON, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		deckJSON = []byte("[]")
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nCurrent slides:\n")
	b.Write(deckJSON)
	b.WriteString("\n\nUser's edit request: ")
	b.WriteString(instruction)
	b.WriteString("\n\nReturn the UPDATED slides in the same JSON format with all slides (modified and unmodified).")
	return b.String()
}
