// Package transcript exports a finished exchange to PDF.
package transcript

import (
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/jpollari/goassistant/internal/records"
)

// Exchange carries everything the export needs; it has no back-reference to
// the originating stream.
type Exchange struct {
	Question string
	Answer   string
	Emails   []records.Email
	Events   []records.Event
}

// Write renders the exchange to a simple one-column PDF. Extracted records
// get their own section after the raw answer; layout is intentionally plain.
func Write(ex Exchange, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	heading(pdf, "Question", 14)
	paragraphs(pdf, ex.Question)
	pdf.Ln(4)

	heading(pdf, "Answer", 14)
	paragraphs(pdf, ex.Answer)

	if len(ex.Emails) > 0 {
		pdf.Ln(4)
		heading(pdf, "Emails", 13)
		for i, e := range ex.Emails {
			item(pdf, i+1, []field{
				{"From", e.From},
				{"Date", e.Date},
				{"Subject", e.Subject},
				{"Content", e.Content},
			})
		}
	}
	if len(ex.Events) > 0 {
		pdf.Ln(4)
		heading(pdf, "Calendar", 13)
		for i, ev := range ex.Events {
			item(pdf, i+1, []field{
				{"Event", ev.Event},
				{"Location", ev.Location},
				{"Time", ev.Time},
			})
		}
	}

	return pdf.OutputFileAndClose(outPath)
}

type field struct {
	label string
	value string
}

func heading(pdf *gofpdf.Fpdf, text string, size float64) {
	pdf.SetFont("Helvetica", "B", size)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func paragraphs(pdf *gofpdf.Fpdf, text string) {
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			pdf.Ln(4)
			continue
		}
		pdf.MultiCell(0, 5, s, "", "L", false)
	}
}

func item(pdf *gofpdf.Fpdf, n int, fields []field) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, strconv.Itoa(n)+". "+fields[0].value, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, f := range fields[1:] {
		pdf.MultiCell(0, 5, f.label+": "+f.value, "", "L", false)
	}
	pdf.Ln(2)
}
