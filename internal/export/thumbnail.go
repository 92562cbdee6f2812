package export

import (
	"bytes"
	"fmt"
	"hash/fnv"

	"github.com/fogleman/gg"

	"github.com/piyuindia4/ai-slides/internal/domain"
)

const (
	thumbnailWidth    = 800
	thumbnailHeight   = 450
	thumbnailFontSize = 24
	thumbnailBandH    = 170
	thumbnailMargin   = 32
)

// Title-band palette. The band color is picked by hashing the slide
// title so a slide keeps its color across renders.
var bandPalette = [][3]float64{
	{0.26, 0.45, 0.77},
	{0.93, 0.49, 0.19},
	{0.36, 0.68, 0.28},
	{0.55, 0.36, 0.76},
	{0.84, 0.31, 0.42},
	{0.20, 0.60, 0.66},
}

// Thumbnail renders one slide as an 800x450 PNG preview. The network
// image is replaced by a solid color band so rendering stays local.
func (e *Exporter) Thumbnail(slide domain.Slide, index int) ([]byte, error) {
	dc := gg.NewContext(thumbnailWidth, thumbnailHeight)
	if e.face != nil {
		dc.SetFontFace(e.face)
	}

	dc.SetRGB(1, 1, 1)
	dc.Clear()

	band := bandPalette[bandColorIndex(slide.Title)]
	dc.SetRGB(band[0], band[1], band[2])
	dc.DrawRectangle(0, 0, thumbnailWidth, thumbnailBandH)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringWrapped(StripMarkup(slide.Title),
		thumbnailMargin, thumbnailBandH/2, 0, 0.5,
		thumbnailWidth-2*thumbnailMargin, 1.3, gg.AlignLeft)

	y := float64(thumbnailBandH + thumbnailMargin)
	dc.SetRGB(0.21, 0.21, 0.21)

	if slide.Subtitle != "" {
		dc.DrawStringWrapped(StripMarkup(slide.Subtitle),
			thumbnailMargin, y, 0, 0,
			thumbnailWidth-2*thumbnailMargin, 1.3, gg.AlignLeft)
		y += lineHeight(dc) * 1.6
	}

	dc.SetRGB(0.35, 0.35, 0.35)
	for _, line := range contentLines(slide.Content) {
		if y > thumbnailHeight-thumbnailMargin {
			break
		}
		dc.DrawStringAnchored(line, thumbnailMargin, y, 0, 1)
		y += lineHeight(dc) * 1.5
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode thumbnail %d: %w", index, err)
	}
	return buf.Bytes(), nil
}

func lineHeight(dc *gg.Context) float64 {
	_, h := dc.MeasureString("Ag")
	if h <= 0 {
		return thumbnailFontSize
	}
	return h
}

func bandColorIndex(title string) int {
	h := fnv.New32a()
	h.Write([]byte(title))
	return int(h.Sum32() % uint32(len(bandPalette)))
}
