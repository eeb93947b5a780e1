// Package pdf renders inspection reports with a verification footer.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"github.com/vistoria/vistoria-core/internal/domain/entities"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
)

const (
	qrImageName = "verification-qr"
	qrSizeMM    = 22.0
	qrPixels    = 256
	footerH     = 28.0
)

// Options configures the renderer.
type Options struct {
	// Title printed above the inspection header. Defaults to "Inspection Report".
	Title string
	// Location is used for printed timestamps. Defaults to UTC.
	Location *time.Location
}

// Renderer implements ports.Renderer using fpdf.
type Renderer struct {
	title string
	loc   *time.Location
}

var _ ports.Renderer = (*Renderer)(nil)

// New creates a Renderer.
func New(opts Options) *Renderer {
	r := &Renderer{title: opts.Title, loc: opts.Location}
	if r.title == "" {
		r.title = "Inspection Report"
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	return r
}

// Render returns the PDF bytes for doc. The footer of every page carries the
// digest, the verification URL and a QR code encoding that URL.
func (r *Renderer) Render(ctx context.Context, doc *ports.ReportDocument) ([]byte, error) {
	if doc == nil || doc.Inspection == nil {
		return nil, errors.New("pdf: document has no inspection")
	}
	if doc.Digest == "" || doc.VerificationURL == "" {
		return nil, errors.New("pdf: digest and verification url are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qr, err := qrcode.Encode(doc.VerificationURL, qrcode.Medium, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("pdf: encoding qr code: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.SetTitle(r.title, true)
	pdf.SetAutoPageBreak(true, footerH+8)
	pdf.RegisterImageOptionsReader(qrImageName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qr))

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() { r.footer(pdf, tr, doc) })
	pdf.AliasNbPages("")

	pdf.AddPage()
	r.header(pdf, tr, doc)
	r.items(pdf, tr, doc.Inspection)
	r.photos(pdf, tr, doc.Inspection)
	r.signatures(pdf, tr, doc.Inspection)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("pdf: rendering: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: writing output: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) header(pdf *fpdf.Fpdf, tr func(string) string, doc *ports.ReportDocument) {
	insp := doc.Inspection

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(r.title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	rows := [][2]string{
		{"Number", insp.Number},
		{"Title", insp.Title},
		{"Status", string(insp.Status)},
		{"Created", r.formatTime(insp.CreatedAt)},
	}
	if insp.SignedAt != nil {
		rows = append(rows, [2]string{"Signed", r.formatTime(*insp.SignedAt)})
	}
	rows = append(rows, [2]string{"Generated", r.formatTime(doc.GeneratedAt)})

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (r *Renderer) items(pdf *fpdf.Fpdf, tr func(string) string, insp *entities.Inspection) {
	r.section(pdf, tr, "Checklist")
	if len(insp.Items) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, "No items.", "", 1, "L", false, 0, "")
		pdf.Ln(2)
		return
	}

	widths := []float64{70, 25, 95}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Item", "Value", "Notes"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range insp.Items {
		value := "-"
		if item.Value != nil {
			value = string(*item.Value)
		}
		notes := ""
		if item.Notes != nil {
			notes = *item.Notes
		}
		label := item.Label
		if label == "" {
			label = item.Path
		}
		pdf.CellFormat(widths[0], 6, tr(truncate(label, 45)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(value), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, tr(truncate(notes, 60)), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (r *Renderer) photos(pdf *fpdf.Fpdf, tr func(string) string, insp *entities.Inspection) {
	if len(insp.Photos) == 0 {
		return
	}
	r.section(pdf, tr, fmt.Sprintf("Photos (%d)", len(insp.Photos)))
	pdf.SetFont("Helvetica", "", 9)
	for _, p := range insp.Photos {
		line := p.Filename
		if p.ItemPath != "" {
			line = p.ItemPath + ": " + line
		}
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func (r *Renderer) signatures(pdf *fpdf.Fpdf, tr func(string) string, insp *entities.Inspection) {
	r.section(pdf, tr, "Signatures")
	pdf.SetFont("Helvetica", "", 10)
	if len(insp.Signatures) == 0 {
		pdf.CellFormat(0, 6, "Not signed.", "", 1, "L", false, 0, "")
		return
	}
	for _, sig := range insp.Signatures {
		line := fmt.Sprintf("%s: %s, %s", sig.Role, sig.SignedByName, r.formatTime(sig.SignedAt))
		if sig.Geo != nil {
			line += fmt.Sprintf(" (%.5f, %.5f)", sig.Geo.Latitude, sig.Geo.Longitude)
		}
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
}

func (r *Renderer) section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (r *Renderer) footer(pdf *fpdf.Fpdf, tr func(string) string, doc *ports.ReportDocument) {
	left, _, right, _ := pdf.GetMargins()
	pageW, pageH := pdf.GetPageSize()
	top := pageH - footerH - 6

	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(left, top, pageW-right, top)

	pdf.ImageOptions(qrImageName, pageW-right-qrSizeMM, top+3, qrSizeMM, qrSizeMM, false,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, doc.VerificationURL)

	textW := pageW - left - right - qrSizeMM - 4
	pdf.SetXY(left, top+4)
	pdf.SetFont("Courier", "", 7)
	pdf.CellFormat(textW, 4, "SHA-256: "+doc.Digest, "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(textW, 4, tr("Verify at: ")+doc.VerificationURL, "", 2, "L", false, 0, doc.VerificationURL)
	pdf.CellFormat(textW, 4, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 2, "L", false, 0, "")
}

func (r *Renderer) formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(r.loc).Format("2006-01-02 15:04 MST")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
