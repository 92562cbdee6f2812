// Package export renders a slide deck into downloadable documents:
// PowerPoint (PPTX), PDF and per-slide PNG thumbnails.
package export

import (
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/piyuindia4/ai-slides/internal/app/generator"
)

// Exporter renders decks. It is safe for concurrent use.
type Exporter struct {
	client *http.Client
	face   font.Face
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithHTTPClient replaces the image download client. Tests use this to
// point image fetches at a local server.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Exporter) { e.client = client }
}

// WithFontFile loads a TrueType font for thumbnail rendering. When the
// file cannot be read or parsed the built-in bitmap face is kept.
func WithFontFile(path string) Option {
	return func(e *Exporter) {
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		parsed, err := truetype.Parse(data)
		if err != nil {
			return
		}
		e.face = truetype.NewFace(parsed, &truetype.Options{Size: thumbnailFontSize})
	}
}

// NewExporter builds an Exporter with a 10 second image download budget.
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{
		client: &http.Client{Timeout: imageFetchTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	unsafeFilenameRe = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRunRe      = regexp.MustCompile(`-{2,}`)
)

// Filename derives a download filename from the deck's originating prompt.
// Anything outside [a-z0-9-] is stripped so the result is safe inside a
// quoted Content-Disposition header.
func Filename(prompt, ext string) string {
	slug := generator.Slug(prompt)
	slug = unsafeFilenameRe.ReplaceAllString(slug, "")
	slug = hyphenRunRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "presentation"
	}
	return slug + "." + ext
}
