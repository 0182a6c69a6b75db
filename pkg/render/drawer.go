package render

import (
	"errors"
	"io"

	"github.com/matzehuels/labelsheet/pkg/layout"
)

var (
	// ErrNoPage is returned when a label is drawn before BeginPage.
	ErrNoPage = errors.New("render: no page started")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("render: drawer closed")

	// ErrSymbol marks a symbol that could not be drawn. The rest of the
	// label is still drawn.
	ErrSymbol = errors.New("render: unusable symbol")
)

// Content is what goes on one label.
type Content struct {
	Title    string
	Subtitle string
	// Symbol holds SVG or raster image bytes. Nil draws no symbol.
	Symbol []byte
	// QR is encoded as a QR code when non-empty.
	QR string
}

// Drawer renders pages of labels. A Drawer is used by one goroutine.
type Drawer interface {
	// BeginPage starts a new page.
	BeginPage()
	// DrawLabel draws content inside pos on the current page.
	DrawLabel(pos layout.Position, content Content) error
	// Finish writes the document to w.
	Finish(w io.Writer) error
	// Close releases the document. It is safe to call more than once.
	Close()
}
