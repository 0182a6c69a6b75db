package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/matzehuels/labelsheet/pkg/layout"
	"github.com/matzehuels/labelsheet/pkg/template"
)

// Font selects a PDF core font.
type Font struct {
	Family string
	Style  string
	Size   float64
}

// Label text defaults.
var (
	DefaultTitleFont    = Font{Family: "Times", Style: "B", Size: 11}
	DefaultSubtitleFont = Font{Family: "Helvetica", Size: 10}
)

const (
	// DefaultSymbolWidth caps the symbol width on regular labels.
	DefaultSymbolWidth = 30.0

	// narrowLabel is the width below which the symbol shrinks to 40% of
	// the label.
	narrowLabel = 60.0

	lineGap   = 4.0
	minQRSide = 12.0
)

// PDFOption configures a PDF.
type PDFOption func(*PDF)

// WithOutlines draws a thin border around every label.
func WithOutlines(on bool) PDFOption {
	return func(p *PDF) { p.outlines = on }
}

// WithFonts overrides the title and subtitle fonts.
func WithFonts(title, subtitle Font) PDFOption {
	return func(p *PDF) {
		p.title = title
		p.subtitle = subtitle
	}
}

// WithSymbolWidth caps the symbol width.
func WithSymbolWidth(w float64) PDFOption {
	return func(p *PDF) { p.symbolWidth = w }
}

// WithTitle sets the document title metadata.
func WithTitle(title string) PDFOption {
	return func(p *PDF) { p.docTitle = title }
}

// PDF is a [Drawer] producing a PDF document sized to a template's page.
type PDF struct {
	doc         *gofpdf.Fpdf
	tmpl        template.Template
	tr          func(string) string
	title       Font
	subtitle    Font
	symbolWidth float64
	outlines    bool
	docTitle    string

	symbols map[string]*symbol
	images  map[string]bool
	pages   int
}

var _ Drawer = (*PDF)(nil)

// NewPDF creates an empty document for t.
func NewPDF(t template.Template, opts ...PDFOption) *PDF {
	p := &PDF{
		tmpl:        t,
		title:       DefaultTitleFont,
		subtitle:    DefaultSubtitleFont,
		symbolWidth: DefaultSymbolWidth,
		symbols:     make(map[string]*symbol),
		images:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}

	doc := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: t.PageWidth, Ht: t.PageHeight},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("labelsheet", true)
	if p.docTitle != "" {
		doc.SetTitle(p.docTitle, true)
	}
	p.tr = doc.UnicodeTranslatorFromDescriptor("")
	p.doc = doc
	return p
}

// BeginPage starts a new page.
func (p *PDF) BeginPage() {
	if p.doc == nil {
		return
	}
	p.doc.AddPage()
	p.pages++
}

// PageCount returns the number of pages started so far.
func (p *PDF) PageCount() int { return p.pages }

// DrawLabel draws content inside pos. A symbol that cannot be decoded is
// skipped and reported with an error wrapping [ErrSymbol] after the rest
// of the label has been drawn.
func (p *PDF) DrawLabel(pos layout.Position, c Content) error {
	switch {
	case p.doc == nil:
		return ErrClosed
	case p.pages == 0:
		return ErrNoPage
	}
	doc := p.doc

	if p.outlines {
		doc.SetDrawColor(190, 190, 190)
		doc.SetLineWidth(0.5)
		doc.Rect(pos.X, pos.Y, pos.Width, pos.Height, "D")
	}

	ix, iy, iw, ih := pos.Content(p.tmpl.PaddingX, p.tmpl.PaddingY)
	symW, gap := p.symbolWidth, 5.0
	if pos.Width < narrowLabel {
		symW, gap = min(p.symbolWidth, pos.Width*0.4), 3.0
	}
	textW := iw - symW - gap
	if textW <= 0 {
		textW = max(10, iw)
	}
	blockH := p.title.Size + p.subtitle.Size + lineGap

	doc.SetTextColor(0, 0, 0)
	baseline := iy + p.title.Size
	p.text(p.title, ix, baseline, c.Title, textW)
	p.text(p.subtitle, ix, baseline+p.subtitle.Size+lineGap, c.Subtitle, textW)

	var symErr error
	if len(c.Symbol) > 0 {
		symErr = p.drawSymbol(c.Symbol, ix+iw, iy, symW, blockH)
	}
	if c.QR != "" {
		side := min(symW, ih-blockH-2)
		if side >= minQRSide {
			if err := p.drawQR(c.QR, ix+iw-side, iy+ih-side, side); err != nil {
				return err
			}
		}
	}
	if doc.Err() {
		return doc.Error()
	}
	return symErr
}

func (p *PDF) text(f Font, x, y float64, s string, maxW float64) {
	if s == "" {
		return
	}
	p.doc.SetFont(f.Family, f.Style, f.Size)
	s = FitText(p.tr(s), maxW, p.doc.GetStringWidth)
	p.doc.Text(x, y, s)
}

// drawSymbol places the symbol with its top-right corner at (right, top),
// scaled to fit maxW x maxH.
func (p *PDF) drawSymbol(data []byte, right, top, maxW, maxH float64) error {
	key := symbolKey(data)
	sym, ok := p.symbols[key]
	if !ok {
		var err error
		if sym, err = decodeSymbol(data, maxW, maxH); err != nil {
			return err
		}
		p.symbols[key] = sym
	}

	scale := scaleToFit(sym.w, sym.h, maxW, maxH)
	w, h := sym.w*scale, sym.h*scale
	x := right - w

	if sym.svg != nil {
		p.doc.SetDrawColor(0, 0, 0)
		p.doc.SetLineWidth(0.3)
		p.doc.SetXY(x, top)
		p.doc.SVGBasicWrite(sym.svg, scale)
		return nil
	}
	name := "sym-" + key
	p.image(name, sym.png)
	p.doc.ImageOptions(name, x, top, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

func (p *PDF) drawQR(payload string, x, y, side float64) error {
	name := "qr-" + symbolKey([]byte(payload))
	if !p.images[name] {
		png, err := qrImage(payload, side)
		if err != nil {
			return fmt.Errorf("render: qr code: %w", err)
		}
		p.image(name, png)
	}
	p.doc.ImageOptions(name, x, y, side, side, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

func (p *PDF) image(name string, png []byte) {
	if p.images[name] {
		return
	}
	p.doc.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	p.images[name] = true
}

// Finish writes the document to w. The PDF cannot be drawn on afterwards.
func (p *PDF) Finish(w io.Writer) error {
	if p.doc == nil {
		return ErrClosed
	}
	if p.pages == 0 {
		return ErrNoPage
	}
	if err := p.doc.Output(w); err != nil {
		return fmt.Errorf("render: write pdf: %w", err)
	}
	return nil
}

// Close drops the document and its images.
func (p *PDF) Close() {
	p.doc = nil
	p.symbols = nil
	p.images = nil
}
