package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
)

// rasterDPI is the resolution raster symbols are resampled to.
const rasterDPI = 300

// symbol is a decoded image ready to be placed.
type symbol struct {
	svg *gofpdf.SVGBasicType
	png []byte
	// intrinsic size in the image's own units
	w, h float64
}

func symbolKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func isSVG(data []byte) bool {
	head := data[:min(len(data), 512)]
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// decodeSymbol parses data as SVG or as a raster image. Raster images are
// fitted into a box of boxW x boxH points.
func decodeSymbol(data []byte, boxW, boxH float64) (*symbol, error) {
	if isSVG(data) {
		return decodeSVG(data)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSymbol, err)
	}
	b := img.Bounds()
	px := func(pt float64) int { return max(1, int(pt*rasterDPI/72)) }
	fitted := imaging.Fit(img, px(boxW), px(boxH), imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSymbol, err)
	}
	return &symbol{png: buf.Bytes(), w: float64(b.Dx()), h: float64(b.Dy())}, nil
}

func decodeSVG(data []byte) (*symbol, error) {
	sig, err := gofpdf.SVGBasicParse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSymbol, err)
	}
	w, h := sig.Wd, sig.Ht
	if w <= 0 || h <= 0 {
		w, h = viewBoxSize(data)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: svg has no size", ErrSymbol)
	}
	return &symbol{svg: &sig, w: w, h: h}, nil
}

// viewBoxSize reads width and height from the root viewBox attribute.
func viewBoxSize(data []byte) (float64, float64) {
	var root struct {
		ViewBox string `xml:"viewBox,attr"`
	}
	if err := xml.Unmarshal(data, &root); err != nil {
		return 0, 0
	}
	f := strings.Fields(strings.ReplaceAll(root.ViewBox, ",", " "))
	if len(f) != 4 {
		return 0, 0
	}
	w, err1 := strconv.ParseFloat(f[2], 64)
	h, err2 := strconv.ParseFloat(f[3], 64)
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return w, h
}

// scaleToFit returns the factor that fits a w x h image into maxW x maxH.
func scaleToFit(w, h, maxW, maxH float64) float64 {
	return min(maxW/w, maxH/h)
}

// qrImage renders payload as a square PNG of side points.
func qrImage(payload string, side float64) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	px := max(code.Bounds().Dx(), int(side*rasterDPI/72))
	scaled, err := barcode.Scale(code, px, px)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
