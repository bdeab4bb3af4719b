package app

import (
	"bufio"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// writeSimplePDF renders a minimal PDF from the canonical text export. The
// text form uses '=' banner lines around the title and upper-case block
// headings; those render bold, everything else flows as body text. This is
// intentionally simple and is an artifact of the run, not an export format.
func writeSimplePDF(text string, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		s := strings.TrimSpace(line)
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if isBannerLine(s) {
			// The banner itself carries no content.
			continue
		}
		if isHeadingLine(s) {
			pdf.SetFont("Helvetica", "B", 13)
			pdf.CellFormat(0, 8, s, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		pdf.MultiCell(0, 5, s, "", "L", false)
	}

	return pdf.OutputFileAndClose(outPath)
}

func isBannerLine(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, r := range s {
		if r != '=' {
			return false
		}
	}
	return true
}

// isHeadingLine treats short all-caps lines (the title, PRAYER, ANNEXURES)
// as headings.
func isHeadingLine(s string) bool {
	if len(s) > 80 || s != strings.ToUpper(s) {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}
