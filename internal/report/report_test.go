package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/grocify/internal/domain"
)

func sampleOrders() []domain.Order {
	return []domain.Order{
		{
			ID:            "b5f6c1de-1111-4c1a-9d55-000000000001",
			Items:         "Bread (x1), Milk (x2)",
			Total:         decimal.RequireFromString("140"),
			PaymentMethod: domain.PaymentMethodUPI,
			CreatedAt:     time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:            "b5f6c1de-1111-4c1a-9d55-000000000002",
			Items:         "Eggs (x12)",
			Total:         decimal.RequireFromString("90.5"),
			PaymentMethod: domain.PaymentMethodCash,
			CreatedAt:     time.Date(2026, 2, 28, 18, 5, 9, 0, time.UTC),
		},
	}
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestBuild(t *testing.T) {
	orders := sampleOrders()
	doc := Build(orders, domain.Aggregate(orders), DefaultOptions())

	assert.Equal(t, "Grocify - Order Report", doc.Title)
	assert.Equal(t, []Field{
		{Label: "Total Orders", Value: "2"},
		{Label: "Total Revenue", Value: "Rs.230.50"},
		{Label: "Average Order Value", Value: "Rs.115.25"},
	}, doc.Stats)

	require.Len(t, doc.Orders, 2)
	assert.Equal(t, "Order 1:", doc.Orders[0].Title)
	assert.Equal(t, "Order 2:", doc.Orders[1].Title)
	assert.Equal(t, Field{Label: "Total", Value: "Rs.140.00"}, doc.Orders[0].Fields[1])
	assert.Equal(t, Field{Label: "Date", Value: "28 Feb 2026 18:05:09 UTC"}, doc.Orders[1].Fields[3])
}

func TestBuild_Location(t *testing.T) {
	orders := sampleOrders()[:1]
	opts := DefaultOptions()
	opts.Location = time.FixedZone("IST", 5*60*60+30*60)

	doc := Build(orders, domain.Aggregate(orders), opts)
	assert.Equal(t, "01 Mar 2026 16:00:00 IST", doc.Orders[0].Fields[3].Value)
}

func TestBuild_Empty(t *testing.T) {
	doc := Build(nil, domain.Aggregate(nil), Options{Title: "Empty", CurrencySymbol: "$"})

	assert.Empty(t, doc.Orders)
	assert.Equal(t, "$0.00", doc.Stats[1].Value)
	assert.Equal(t, "$0.00", doc.Stats[2].Value)
}

func TestTextRenderer_Golden(t *testing.T) {
	orders := sampleOrders()
	doc := Build(orders, domain.Aggregate(orders), DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, TextRenderer{}.Render(&buf, doc))
	golden(t).Assert(t, "report", buf.Bytes())
}

func TestTextRenderer_EmptyGolden(t *testing.T) {
	doc := Build(nil, domain.Aggregate(nil), DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, TextRenderer{}.Render(&buf, doc))
	golden(t).Assert(t, "report_empty", buf.Bytes())
}

func TestPDFRenderer(t *testing.T) {
	orders := sampleOrders()
	doc := Build(orders, domain.Aggregate(orders), DefaultOptions())

	var buf bytes.Buffer
	r := PDFRenderer{}
	require.NoError(t, r.Render(&buf, doc))

	assert.Equal(t, "application/pdf", r.ContentType())
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestPDFRenderer_BreaksPages(t *testing.T) {
	orders := make([]domain.Order, 60)
	for i := range orders {
		orders[i] = domain.Order{
			Items:         fmt.Sprintf("Item %d (x1)", i),
			Total:         decimal.NewFromInt(10),
			PaymentMethod: domain.PaymentMethodCard,
			CreatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	doc := Build(orders, domain.Aggregate(orders), DefaultOptions())

	pdf := PDFRenderer{}.layout(doc)
	require.NoError(t, pdf.Error())
	assert.Greater(t, pdf.PageCount(), 1)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPDFRenderer_WriteError(t *testing.T) {
	doc := Build(nil, domain.Aggregate(nil), DefaultOptions())
	assert.Error(t, PDFRenderer{}.Render(failingWriter{}, doc))
}

func TestPDFRenderer_CoreFontTranslatesToCP1252(t *testing.T) {
	family, tr := PDFRenderer{}.fonts(fpdf.New("P", "mm", "A4", ""))

	assert.Equal(t, "Helvetica", family)
	assert.Equal(t, "Caf\xe9 \x80", tr("Café €"))
	assert.Equal(t, "......", tr("Молоко"))
}

const systemFont = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"

func TestPDFRenderer_UTF8Font(t *testing.T) {
	if _, err := os.Stat(systemFont); err != nil {
		t.Skipf("no TrueType font at %s", systemFont)
	}
	font, err := LoadUTF8Font(systemFont, "")
	require.NoError(t, err)
	assert.Equal(t, font.Regular, font.Bold)

	orders := []domain.Order{{
		ID:            "b5f6c1de-1111-4c1a-9d55-000000000003",
		Items:         "Молоко (x2), Ψωμί (x1)",
		Total:         decimal.RequireFromString("150"),
		PaymentMethod: domain.PaymentMethodCash,
		CreatedAt:     time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}}
	opts := DefaultOptions()
	opts.CurrencySymbol = "₹"
	doc := Build(orders, domain.Aggregate(orders), opts)

	r := PDFRenderer{Font: font}
	family, tr := r.fonts(fpdf.New("P", "mm", "A4", ""))
	assert.Equal(t, utf8Family, family)
	assert.Equal(t, "Молоко", tr("Молоко"))

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, doc))
	assert.Contains(t, buf.String(), "/Subtype /Type0")
}

func TestLoadUTF8Font_Missing(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadUTF8Font(filepath.Join(dir, "regular.ttf"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read report font")

	regular := filepath.Join(dir, "regular.ttf")
	require.NoError(t, os.WriteFile(regular, []byte("ttf"), 0o600))
	_, err = LoadUTF8Font(regular, filepath.Join(dir, "bold.ttf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read bold report font")
}
