package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/piyuindia4/ai-slides/internal/domain"
)

// Geometry in EMUs on a 10in x 7.5in slide. The image band sits on top,
// the three text frames stack below it.
const (
	emuPerInch = 914400

	slideWidthEMU  = 10 * emuPerInch
	slideHeightEMU = 7.5 * emuPerInch

	imageX = 0.5 * emuPerInch
	imageY = 0.5 * emuPerInch
	imageW = 8 * emuPerInch
	imageH = 3.5 * emuPerInch

	titleY    = 4.2 * emuPerInch
	subtitleY = 5.0 * emuPerInch
	bodyY     = 5.6 * emuPerInch

	textX = 0.5 * emuPerInch
	textW = 9 * emuPerInch

	titleH    = 0.8 * emuPerInch
	subtitleH = 0.5 * emuPerInch
	bodyH     = 1.7 * emuPerInch
)

const (
	nsMain = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRel  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPres = "http://schemas.openxmlformats.org/presentationml/2006/main"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEsc(s string) string { return xmlEscaper.Replace(s) }

type slideMedia struct {
	data []byte
	kind string
}

// PPTX renders the deck as a PowerPoint package. Slide images that cannot
// be fetched are logged and omitted.
func (e *Exporter) PPTX(ctx context.Context, deck domain.Deck) ([]byte, error) {
	if len(deck) == 0 {
		return nil, fmt.Errorf("render pptx: empty deck")
	}

	media := make([]*slideMedia, len(deck))
	for i, slide := range deck {
		if slide.Image == "" {
			continue
		}
		data, kind, err := e.fetchImage(ctx, slide.Image)
		if err != nil {
			logImageSkip(ctx, slide.Image, err)
			continue
		}
		media[i] = &slideMedia{data: data, kind: kind}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML(len(deck))},
		{"_rels/.rels", rootRelsXML},
		{"ppt/presentation.xml", presentationXML(len(deck))},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML(len(deck))},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
	}
	for i, slide := range deck {
		n := i + 1
		parts = append(parts,
			struct {
				name string
				body string
			}{fmt.Sprintf("ppt/slides/slide%d.xml", n), slideXML(slide, media[i] != nil)},
			struct {
				name string
				body string
			}{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), slideRelsXML(n, media[i])},
		)
	}

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	for i, m := range media {
		if m == nil {
			continue
		}
		name := fmt.Sprintf("ppt/media/image%d.%s", i+1, m.kind)
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := w.Write(m.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish pptx: %w", err)
	}
	return buf.Bytes(), nil
}

func contentTypesXML(slides int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Default Extension="jpeg" ContentType="image/jpeg"/>`)
	sb.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	sb.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	for i := 0; i < slides; i++ {
		fmt.Fprintf(&sb, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	sb.WriteString(`</Types>`)
	return sb.String()
}

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`

func presentationXML(slides int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	fmt.Fprintf(&sb, `<p:presentation xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsMain, nsRel, nsPres)
	sb.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	sb.WriteString(`<p:sldIdLst>`)
	for i := 0; i < slides; i++ {
		fmt.Fprintf(&sb, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	sb.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&sb, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/>`, slideWidthEMU, int(slideHeightEMU))
	sb.WriteString(`</p:presentation>`)
	return sb.String()
}

func presentationRelsXML(slides int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := 0; i < slides; i++ {
		fmt.Fprintf(&sb, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+2, i+1)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

var slideMasterXML = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster xmlns:a=%q xmlns:r=%q xmlns:p=%q><p:cSld><p:bg><p:bgPr><a:solidFill><a:srgbClr val="FFFFFF"/></a:solidFill><a:effectLst/></p:bgPr></p:bg><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`, nsMain, nsRel, nsPres)

const slideMasterRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/></Relationships>`

var slideLayoutXML = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a=%q xmlns:r=%q xmlns:p=%q type="blank" preserve="1"><p:cSld name="Blank"><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`, nsMain, nsRel, nsPres)

const slideLayoutRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`

var themeXML = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a=%q name="Office"><a:themeElements><a:clrScheme name="Office"><a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1><a:dk2><a:srgbClr val="44546A"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2><a:accent1><a:srgbClr val="4472C4"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2><a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4><a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6><a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink></a:clrScheme><a:fontScheme name="Office"><a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont><a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme><a:fmtScheme name="Office"><a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst><a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst><a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst><a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst></a:fmtScheme></a:themeElements></a:theme>`, nsMain)

func slideXML(slide domain.Slide, hasImage bool) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	fmt.Fprintf(&sb, `<p:sld xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsMain, nsRel, nsPres)
	sb.WriteString(`<p:cSld><p:spTree>`)
	sb.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)

	if hasImage {
		sb.WriteString(`<p:pic><p:nvPicPr><p:cNvPr id="5" name="Slide Image"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`)
		sb.WriteString(`<p:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`)
		fmt.Fprintf(&sb, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
			int(imageX), int(imageY), imageW, int(imageH))
	}

	writeTextBox(&sb, 2, "Title", int(titleY), int(titleH), []string{StripMarkup(slide.Title)}, 2800, "1", "0")
	if slide.Subtitle != "" {
		writeTextBox(&sb, 3, "Subtitle", int(subtitleY), int(subtitleH), []string{StripMarkup(slide.Subtitle)}, 1600, "0", "1")
	}
	if slide.Content != "" {
		writeTextBox(&sb, 4, "Body", int(bodyY), int(bodyH), contentLines(slide.Content), 1200, "0", "0")
	}

	sb.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return sb.String()
}

func writeTextBox(sb *strings.Builder, id int, name string, y, h int, lines []string, size int, bold, italic string) {
	fmt.Fprintf(sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name=%q/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, name)
	fmt.Fprintf(sb, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`,
		int(textX), y, textW, h)
	sb.WriteString(`<p:txBody><a:bodyPr wrap="square"/><a:lstStyle/>`)
	for _, line := range lines {
		fmt.Fprintf(sb, `<a:p><a:r><a:rPr lang="en-US" sz="%d" b="%s" i="%s" dirty="0"><a:solidFill><a:srgbClr val="363636"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r></a:p>`,
			size, bold, italic, xmlEsc(line))
	}
	sb.WriteString(`</p:txBody></p:sp>`)
}

// contentLines flattens parsed content into one text line per paragraph.
func contentLines(content string) []string {
	var lines []string
	for _, block := range ParseContent(content) {
		switch block.Kind {
		case BlockBullets:
			for _, item := range block.Items {
				lines = append(lines, "• "+item)
			}
		case BlockNumbered:
			for n, item := range block.Items {
				lines = append(lines, fmt.Sprintf("%d. %s", n+1, item))
			}
		default:
			lines = append(lines, block.Text)
		}
	}
	return lines
}

func slideRelsXML(n int, m *slideMedia) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	sb.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`)
	if m != nil {
		fmt.Fprintf(&sb, `<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image%d.%s"/>`, n, m.kind)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}
