package export

import (
	"regexp"
	"strings"
)

// Slide content arrives with a handful of inline markers (bold, italic,
// inline code, links). Both document formats strip these to plain text
// before layout; literal text is preserved otherwise.
var (
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe  = regexp.MustCompile(`\*(.*?)\*`)
	underRe   = regexp.MustCompile(`__(.*?)__`)
	codeRe    = regexp.MustCompile("`(.*?)`")
	linkRe    = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	bulletRe  = regexp.MustCompile(`^[•\-\*]\s+(.*)`)
	numberRe  = regexp.MustCompile(`^\d+\.\s+(.*)`)
	headingRe = regexp.MustCompile(`^\*\*(.*?)\*\*$`)
)

// StripMarkup removes inline markers and keeps the text they wrap.
func StripMarkup(text string) string {
	if text == "" {
		return ""
	}
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = underRe.ReplaceAllString(text, "$1")
	text = codeRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	return text
}

type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockHeading   BlockKind = "heading"
	BlockBullets   BlockKind = "bullets"
	BlockNumbered  BlockKind = "numbered"
)

// Block is one structural run of slide content.
type Block struct {
	Kind  BlockKind
	Text  string
	Items []string
}

// ParseContent splits slide content into headings, bullet runs, numbered
// runs and paragraphs, with inline markers already stripped.
func ParseContent(content string) []Block {
	if content == "" {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}

	var blocks []Block
	i := 0
	for i < len(lines) {
		line := lines[i]

		if m := headingRe.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, Block{Kind: BlockHeading, Text: m[1]})
			i++
			continue
		}

		if bulletRe.MatchString(line) {
			var items []string
			for i < len(lines) && bulletRe.MatchString(lines[i]) {
				m := bulletRe.FindStringSubmatch(lines[i])
				items = append(items, StripMarkup(m[1]))
				i++
			}
			blocks = append(blocks, Block{Kind: BlockBullets, Items: items})
			continue
		}

		if numberRe.MatchString(line) {
			var items []string
			for i < len(lines) && numberRe.MatchString(lines[i]) {
				m := numberRe.FindStringSubmatch(lines[i])
				items = append(items, StripMarkup(m[1]))
				i++
			}
			blocks = append(blocks, Block{Kind: BlockNumbered, Items: items})
			continue
		}

		blocks = append(blocks, Block{Kind: BlockParagraph, Text: StripMarkup(line)})
		i++
	}
	return blocks
}
