package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/sixtyscan/voiceapi/internal/pkg/classify"
	"github.com/sixtyscan/voiceapi/internal/pkg/persistence"
)

// FileName builds the download name for a result document
func FileName(rec *persistence.TestRecord) string {
	return fmt.Sprintf("SixtyScan-result-%d.pdf", rec.Percent)
}

// Result renders a one page result document for a stored test record
func Result(rec *persistence.TestRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("no record")
	}
	cl := classify.Do(rec.Percent)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "SixtyScan - Voice Analysis Result", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 13)
	writeLine(pdf, fmt.Sprintf("Summary: voice %s", cl.Diagnosis))
	writeLine(pdf, fmt.Sprintf("Risk tier: %s", cl.Tier))
	writeLine(pdf, fmt.Sprintf("Voice risk percent: %d%%", rec.Percent))
	writeLine(pdf, fmt.Sprintf("Model label: %s", rec.Label))
	if !rec.Created.IsZero() {
		writeLine(pdf, fmt.Sprintf("Tested: %s", rec.Created.Format("2006-01-02 15:04")))
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 14)
	writeLine(pdf, "Initial advice")
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range cl.Advice {
		pdf.SetX(25)
		pdf.MultiCell(160, 7, "- "+line, "", "L", false)
	}

	pdf.SetY(-25)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5,
		"Note: this result is a voice based screening only and is not a medical diagnosis.",
		"", "L", false)

	var b bytes.Buffer
	if err := pdf.Output(&b); err != nil {
		return nil, fmt.Errorf("can't render pdf: %w", err)
	}
	return b.Bytes(), nil
}

func writeLine(pdf *gofpdf.Fpdf, txt string) {
	pdf.CellFormat(0, 8, txt, "", 1, "L", false, 0, "")
}
