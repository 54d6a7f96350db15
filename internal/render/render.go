// Package render produces the printable lorry-receipt document. The
// pipeline talks to the Renderer interface; the PDF implementation lays out
// boxed receipt blocks, a configurable number per page.
package render

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"

	"lorry/internal/record"
)

// Renderer is the downstream document collaborator. CreateDocument starts a
// document with the first batch; AppendToDocument extends it with each
// subsequent batch. Records arrive in source row order.
type Renderer interface {
	CreateDocument(records []*record.Record, outputPath string) error
	AppendToDocument(records []*record.Record, outputPath string) error
}

// PDF renders lorry receipts to an A4 PDF. fpdf documents are write-once,
// so batches are buffered per output path and the whole document is
// re-emitted on every append; the final write wins.
type PDF struct {
	companyName  string
	itemsPerPage int

	mu      sync.Mutex
	batches map[string][]*record.Record
}

// NewPDF constructs a PDF renderer.
func NewPDF(companyName string, itemsPerPage int) *PDF {
	if itemsPerPage <= 0 {
		itemsPerPage = 2
	}
	return &PDF{
		companyName:  companyName,
		itemsPerPage: itemsPerPage,
		batches:      make(map[string][]*record.Record),
	}
}

// CreateDocument starts a new document at outputPath containing records.
func (p *PDF) CreateDocument(records []*record.Record, outputPath string) error {
	if len(records) == 0 {
		return errors.New("create document: no records")
	}
	p.mu.Lock()
	p.batches[outputPath] = append([]*record.Record(nil), records...)
	buffered := p.batches[outputPath]
	p.mu.Unlock()
	return p.emit(buffered, outputPath)
}

// AppendToDocument extends the document at outputPath with records.
func (p *PDF) AppendToDocument(records []*record.Record, outputPath string) error {
	p.mu.Lock()
	if _, ok := p.batches[outputPath]; !ok {
		p.mu.Unlock()
		return fmt.Errorf("append to document: %s was never created", outputPath)
	}
	p.batches[outputPath] = append(p.batches[outputPath], records...)
	buffered := p.batches[outputPath]
	p.mu.Unlock()
	return p.emit(buffered, outputPath)
}

func (p *PDF) emit(records []*record.Record, outputPath string) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(12, 12, 12)
	doc.SetAutoPageBreak(false, 12)

	for start := 0; start < len(records); start += p.itemsPerPage {
		end := start + p.itemsPerPage
		if end > len(records) {
			end = len(records)
		}
		doc.AddPage()
		for _, rec := range records[start:end] {
			p.drawReceipt(doc, rec)
		}
	}

	if err := doc.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (p *PDF) drawReceipt(doc *fpdf.Fpdf, rec *record.Record) {
	left, _, right, _ := doc.GetMargins()
	pageWidth, _ := doc.GetPageSize()
	width := pageWidth - left - right

	top := doc.GetY()
	doc.SetX(left)

	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(width, 9, p.companyName, "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(width, 7, "LR No: "+rec.ID, "", 1, "L", false, 0, "")

	labelWidth := width * 0.35
	valueWidth := width - labelWidth
	for _, field := range rec.Fields() {
		doc.SetFont("Helvetica", "B", 9)
		doc.CellFormat(labelWidth, 6, fieldLabel(field.Name), "1", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 9)
		doc.CellFormat(valueWidth, 6, field.Value.Display(), "1", 1, "L", false, 0, "")
	}

	bottom := doc.GetY()
	doc.Rect(left-1, top-1, width+2, bottom-top+2, "D")
	doc.SetY(bottom + 8)
}

// fieldLabel renders a canonical field name for display:
// "consignor_name" becomes "Consignor Name".
func fieldLabel(name string) string {
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
