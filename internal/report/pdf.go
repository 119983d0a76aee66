package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-pdf/fpdf"
)

const utf8Family = "grocify"

// UTF8Font is a TrueType family embedded in reports instead of the core fonts.
type UTF8Font struct {
	Regular []byte
	Bold    []byte
}

// LoadUTF8Font reads TrueType files for the report font. With an empty
// boldPath the regular face also serves bold text.
func LoadUTF8Font(regularPath, boldPath string) (*UTF8Font, error) {
	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return nil, fmt.Errorf("read report font: %w", err)
	}
	font := &UTF8Font{Regular: regular, Bold: regular}
	if boldPath != "" {
		if font.Bold, err = os.ReadFile(boldPath); err != nil {
			return nil, fmt.Errorf("read bold report font: %w", err)
		}
	}
	return font, nil
}

// PDFRenderer lays a Document out as a PDF. Without Font it uses the core
// Helvetica fonts and text is translated to cp1252; runes outside cp1252
// print as '.'. Set Font to render names in any script the font covers.
type PDFRenderer struct {
	Font *UTF8Font
}

// ContentType implements Renderer.
func (PDFRenderer) ContentType() string { return "application/pdf" }

// Render implements Renderer. Pages break automatically.
func (r PDFRenderer) Render(w io.Writer, doc Document) error {
	pdf := r.layout(doc)
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func (r PDFRenderer) layout(doc Document) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("grocify", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	family, tr := r.fonts(pdf)

	pdf.SetFont(family, "B", 20)
	pdf.CellFormat(0, 12, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	heading := func(text string) {
		pdf.SetFont(family, "BU", 14)
		pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}
	field := func(indent float64, f Field) {
		pdf.SetX(pdf.GetX() + indent)
		pdf.MultiCell(0, 6, tr(f.Label+": "+f.Value), "", "L", false)
	}

	heading(doc.StatsHeading)
	pdf.SetFont(family, "", 12)
	for _, f := range doc.Stats {
		field(0, f)
	}
	pdf.Ln(6)

	heading(doc.OrdersHeading)
	for _, b := range doc.Orders {
		pdf.SetFont(family, "B", 12)
		pdf.CellFormat(0, 7, tr(b.Title), "", 1, "L", false, 0, "")
		pdf.SetFont(family, "", 12)
		for _, f := range b.Fields {
			field(4, f)
		}
		pdf.Ln(4)
	}

	return pdf
}

// fonts registers the report font on pdf and returns its family together with
// the translation applied to every string written.
func (r PDFRenderer) fonts(pdf *fpdf.Fpdf) (string, func(string) string) {
	if r.Font == nil {
		return "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddUTF8FontFromBytes(utf8Family, "", r.Font.Regular)
	pdf.AddUTF8FontFromBytes(utf8Family, "B", r.Font.Bold)
	return utf8Family, func(s string) string { return s }
}
