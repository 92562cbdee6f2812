package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/piyuindia4/ai-slides/internal/domain"
)

// A4 portrait layout in millimetres, one page per slide.
const (
	pdfMarginLeft  = 20.0
	pdfMarginTop   = 20.0
	pdfImageWidth  = 170.0
	pdfImageHeight = 100.0
	pdfTextWidth   = 170.0
)

// PDF renders the deck as an A4 portrait document. Slide images that
// cannot be fetched are logged and omitted.
func (e *Exporter) PDF(ctx context.Context, deck domain.Deck) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, slide := range deck {
		pdf.AddPage()
		y := pdfMarginTop

		if slide.Image != "" {
			data, kind, err := e.fetchImage(ctx, slide.Image)
			if err != nil {
				logImageSkip(ctx, slide.Image, err)
			} else {
				opts := fpdf.ImageOptions{ImageType: strings.ToUpper(kind)}
				name := fmt.Sprintf("slide-%d", i)
				pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
				pdf.ImageOptions(name, pdfMarginLeft, y, pdfImageWidth, pdfImageHeight, false, opts, 0, "")
				y += pdfImageHeight + 10
			}
		}

		pdf.SetXY(pdfMarginLeft, y)
		pdf.SetFont("Helvetica", "B", 20)
		pdf.MultiCell(pdfTextWidth, 9, tr(StripMarkup(slide.Title)), "", "L", false)

		if slide.Subtitle != "" {
			pdf.SetX(pdfMarginLeft)
			pdf.SetFont("Helvetica", "I", 14)
			pdf.MultiCell(pdfTextWidth, 7, tr(StripMarkup(slide.Subtitle)), "", "L", false)
		}

		if slide.Content != "" {
			pdf.Ln(3)
			pdf.SetFont("Helvetica", "", 11)
			for _, block := range ParseContent(slide.Content) {
				switch block.Kind {
				case BlockHeading:
					pdf.SetFont("Helvetica", "B", 11)
					pdf.SetX(pdfMarginLeft)
					pdf.MultiCell(pdfTextWidth, 6, tr(block.Text), "", "L", false)
					pdf.SetFont("Helvetica", "", 11)
				case BlockBullets:
					for _, item := range block.Items {
						pdf.SetX(pdfMarginLeft)
						pdf.MultiCell(pdfTextWidth, 6, tr("• "+item), "", "L", false)
					}
				case BlockNumbered:
					for n, item := range block.Items {
						pdf.SetX(pdfMarginLeft)
						pdf.MultiCell(pdfTextWidth, 6, tr(fmt.Sprintf("%d. %s", n+1, item)), "", "L", false)
					}
				default:
					pdf.SetX(pdfMarginLeft)
					pdf.MultiCell(pdfTextWidth, 6, tr(block.Text), "", "L", false)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
