// Package export assembles the final sections, reliefs, and annexures into
// a delivery-ready representation. Two formats are supported: a
// human-readable text rendering and a WordprocessingML structural
// equivalent. Anything else is a failed-gate report, never a crash.
package export

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/lexfoundry/draftgate/internal/model"
)

// Supported format values.
const (
	FormatText = "text"
	FormatDocx = "docx"
)

// Quality heuristic point values, normalized by their sum.
const (
	pointsTitle     = 15
	pointsSections  = 35
	pointsReliefs   = 20
	pointsAnnexures = 10
	pointsCitations = 10
	pointsResearch  = 10
	pointsTotal     = pointsTitle + pointsSections + pointsReliefs + pointsAnnexures + pointsCitations + pointsResearch
)

// Input is everything the formatter assembles.
type Input struct {
	Title     string           `json:"title"`
	Format    string           `json:"format"`
	Sections  []model.Section  `json:"sections"`
	Reliefs   []string         `json:"reliefs,omitempty"`
	Annexures []string         `json:"annexures,omitempty"`
	Citations []model.Citation `json:"citations,omitempty"`
	// HasResearch marks that a research bundle was attached upstream.
	HasResearch bool `json:"hasResearch,omitempty"`
	// UpstreamScore, when non-nil, is passed through as the quality score.
	UpstreamScore *float64 `json:"upstreamScore,omitempty"`
}

// Metadata describes the produced export.
type Metadata struct {
	Timestamp    string   `json:"timestamp"`
	WordCount    int      `json:"wordCount"`
	SectionCount int      `json:"sectionCount"`
	HasReliefs   bool     `json:"hasReliefs"`
	HasAnnexures bool     `json:"hasAnnexures"`
	QualityScore float64  `json:"qualityScore"`
	Errors       []string `json:"errors,omitempty"`
}

// Result is the export gate output. On an unsupported format Passed is
// false and Content is empty; no partial output is produced.
type Result struct {
	Passed   bool     `json:"passed"`
	Format   string   `json:"format"`
	Content  string   `json:"exportContent"`
	Metadata Metadata `json:"metadata"`
}

// Formatter renders exports. Now is swappable for tests; nil means
// time.Now.
type Formatter struct {
	Now func() time.Time
}

// Format assembles the delivery representation. The word count always
// comes from the canonical text rendering, whatever the target format.
func (f *Formatter) Format(in Input) Result {
	now := time.Now
	if f != nil && f.Now != nil {
		now = f.Now
	}

	format := strings.ToLower(strings.TrimSpace(in.Format))
	canonical := renderText(in)

	meta := Metadata{
		Timestamp:    now().UTC().Format(time.RFC3339),
		WordCount:    len(strings.Fields(canonical)),
		SectionCount: len(in.Sections),
		HasReliefs:   len(in.Reliefs) > 0,
		HasAnnexures: len(in.Annexures) > 0,
		QualityScore: qualityScore(in),
	}

	switch format {
	case FormatText:
		return Result{Passed: true, Format: format, Content: canonical, Metadata: meta}
	case FormatDocx:
		return Result{Passed: true, Format: format, Content: renderDocx(in), Metadata: meta}
	default:
		meta.Errors = append(meta.Errors, fmt.Sprintf(
			"unsupported format %q: supported formats are %q and %q", in.Format, FormatText, FormatDocx))
		return Result{Passed: false, Format: format, Content: "", Metadata: meta}
	}
}

// renderText is the canonical rendering: a title banner, numbered
// sections, a relief block, and an annexure list.
func renderText(in Input) string {
	var b strings.Builder

	if title := strings.TrimSpace(in.Title); title != "" {
		banner := strings.Repeat("=", len(title))
		b.WriteString(banner + "\n" + strings.ToUpper(title) + "\n" + banner + "\n\n")
	}

	for i, s := range in.Sections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Title)
		if strings.TrimSpace(s.Content) != "" {
			b.WriteString(s.Content + "\n")
		}
		b.WriteString("\n")
	}

	if len(in.Reliefs) > 0 {
		b.WriteString("PRAYER\n")
		for i, r := range in.Reliefs {
			fmt.Fprintf(&b, "%c) %s\n", 'a'+i, r)
		}
		b.WriteString("\n")
	}

	if len(in.Annexures) > 0 {
		b.WriteString("ANNEXURES\n")
		for i, a := range in.Annexures {
			fmt.Fprintf(&b, "%d. %s\n", i+1, a)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// renderDocx produces the WordprocessingML body for the same content.
// Packaging the XML into a .docx container is the caller's concern; the
// formatter owns structure only.
func renderDocx(in Input) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	if title := strings.TrimSpace(in.Title); title != "" {
		writeParagraph(&b, "Title", strings.ToUpper(title))
	}
	for _, s := range in.Sections {
		writeParagraph(&b, "Heading1", s.Title)
		for _, line := range strings.Split(s.Content, "\n") {
			if strings.TrimSpace(line) != "" {
				writeParagraph(&b, "", line)
			}
		}
	}
	if len(in.Reliefs) > 0 {
		writeParagraph(&b, "Heading1", "Prayer")
		for i, r := range in.Reliefs {
			writeParagraph(&b, "", fmt.Sprintf("%c) %s", 'a'+i, r))
		}
	}
	if len(in.Annexures) > 0 {
		writeParagraph(&b, "Heading1", "Annexures")
		for i, a := range in.Annexures {
			writeParagraph(&b, "", fmt.Sprintf("%d. %s", i+1, a))
		}
	}

	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeParagraph(b *strings.Builder, style, text string) {
	b.WriteString(`<w:p>`)
	if style != "" {
		fmt.Fprintf(b, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, style)
	}
	b.WriteString(`<w:r><w:t xml:space="preserve">`)
	_ = xml.EscapeText(b, []byte(text))
	b.WriteString(`</w:t></w:r></w:p>`)
}

// qualityScore passes through the upstream score when supplied, otherwise
// applies the fixed-point presence heuristic.
func qualityScore(in Input) float64 {
	if in.UpstreamScore != nil {
		return clamp01(*in.UpstreamScore)
	}
	points := 0
	if strings.TrimSpace(in.Title) != "" {
		points += pointsTitle
	}
	if len(in.Sections) > 0 {
		points += pointsSections
	}
	if len(in.Reliefs) > 0 {
		points += pointsReliefs
	}
	if len(in.Annexures) > 0 {
		points += pointsAnnexures
	}
	if len(in.Citations) > 0 {
		points += pointsCitations
	}
	if in.HasResearch {
		points += pointsResearch
	}
	return float64(points) / float64(pointsTotal)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
