package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/piyuindia4/ai-slides/internal/domain"
	"github.com/tidwall/gjson"
)

// fallbackContentLimit is how much of the raw model text survives into the
// synthetic slide when decoding fails.
const fallbackContentLimit = 500

// Result is the outcome of normalizing one model response.
type Result struct {
	Deck    domain.Deck
	Message string
	// Fallback is set when the model call succeeded but its output could
	// not be decoded, so a synthetic single-slide deck was substituted.
	Fallback bool
}

var codeFenceRe = regexp.MustCompile("```[a-zA-Z]*")

// Normalize decodes rawText into {message, slides[]} and maps it onto the
// slide schema. Decode failure is a recoverable branch, never an error:
// malformed output yields a single-slide deck carrying the first 500
// characters of the raw text.
func Normalize(rawText, prompt string) Result {
	clean := strings.TrimSpace(codeFenceRe.ReplaceAllString(rawText, ""))

	if gjson.Valid(clean) {
		parsed := gjson.Parse(clean)
		slides := parsed.Get("slides")
		if slides.IsArray() {
			entries := slides.Array()
			if len(entries) > 0 {
				deck := make(domain.Deck, 0, len(entries))
				for i, entry := range entries {
					deck = append(deck, mapSlide(entry, prompt, i))
				}
				return Result{
					Deck:    deck,
					Message: parsed.Get("message").String(),
				}
			}
		}
	}

	content := rawText
	if r := []rune(content); len(r) > fallbackContentLimit {
		content = string(r[:fallbackContentLimit])
	}
	return Result{
		Deck: domain.Deck{{
			Title:   "Generated Content",
			Content: content,
			Type:    domain.SlideTypeTitle,
			Layout:  string(domain.SlideTypeTitle),
			Image:   ImageURL(prompt, 0),
		}},
		Fallback: true,
	}
}

func mapSlide(entry gjson.Result, prompt string, index int) domain.Slide {
	slideType := domain.SlideTypeContent
	if index == 0 {
		slideType = domain.SlideTypeTitle
	}
	return domain.Slide{
		Title:    entry.Get("title").String(),
		Subtitle: entry.Get("subtitle").String(),
		Content:  entry.Get("content").String(),
		Type:     slideType,
		Layout:   string(slideType),
		Image:    ImageURL(prompt, index),
	}
}

// ImageURL derives a deterministic image reference from the originating
// prompt and slide index. Same seed, same image.
func ImageURL(prompt string, index int) string {
	return imageURLForSeed(fmt.Sprintf("%s-%d", Slug(prompt), index))
}

func imageURLForSeed(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/800/450.jpg", seed)
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Slug lowercases a prompt and collapses whitespace to hyphens for use in
// image seeds and filenames.
func Slug(s string) string {
	return strings.ToLower(whitespaceRe.ReplaceAllString(strings.TrimSpace(s), "-"))
}
