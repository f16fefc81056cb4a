// Package badge lays out the printable visitor badge as a PDF.
package badge

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth  = 252.0
	pageHeight = 378.0
	margin     = 18.0
	photoSize  = 64.0
	qrSize     = 150.0
	dateLayout = "Jan 2, 2006 3:04 PM"
)

var ErrRender = errors.New("badge: render failed")

type Data struct {
	PassNumber string
	FullName   string
	Company    string
	Photo      string // data URL or /uploads/<file>
	QRImage    string // PNG data URL
	ValidFrom  time.Time
	ValidUntil time.Time
}

type Renderer struct {
	uploadDir string
}

func NewRenderer(uploadDir string) *Renderer { return &Renderer{uploadDir: uploadDir} }

// Render returns the complete document or an error wrapping ErrRender; never partial bytes.
func (r *Renderer) Render(d Data) ([]byte, error) {
	qrBytes, qrType, err := decodeDataURL(d.QRImage)
	if err != nil {
		return nil, fmt.Errorf("%w: qr image: %v", ErrRender, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(qrBytes)); err != nil {
		return nil, fmt.Errorf("%w: qr image: %v", ErrRender, err)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Visitor Pass "+d.PassNumber, true)
	pdf.AddPage()

	contentWidth := pageWidth - 2*margin
	center := func(size float64, style, text string, h float64) {
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(contentWidth, h, text, "", 1, "C", false, 0, "")
	}

	pdf.SetY(20)
	center(18, "B", "VISITOR PASS", 22)

	y := pdf.GetY() + 4
	if r.placePhoto(pdf, d.Photo, y) {
		y += photoSize + 4
	}
	pdf.SetY(y)

	center(16, "B", d.FullName, 18)
	if strings.TrimSpace(d.Company) != "" {
		center(12, "", d.Company, 14)
	}
	center(10, "", "Pass #: "+d.PassNumber, 12)

	qrY := pdf.GetY() + 4
	opts := fpdf.ImageOptions{ImageType: qrType}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrBytes))
	pdf.ImageOptions("qr", (pageWidth-qrSize)/2, qrY, qrSize, qrSize, false, opts, 0, "")
	pdf.SetY(qrY + qrSize + 4)

	center(9, "", "Valid From: "+d.ValidFrom.Format(dateLayout), 11)
	center(9, "", "Valid Until: "+d.ValidUntil.Format(dateLayout), 11)

	pdf.SetY(pageHeight - 28)
	center(8, "I", "Please wear this badge at all times", 10)

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrRender, pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// placePhoto draws the photo when it can be loaded and reports whether it did.
func (r *Renderer) placePhoto(pdf *fpdf.Fpdf, src string, y float64) bool {
	data, imgType, err := r.loadPhoto(src)
	if err != nil {
		return false
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return false
	}
	opts := fpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader("photo", opts, bytes.NewReader(data))
	if pdf.Err() {
		pdf.ClearError()
		return false
	}
	pdf.ImageOptions("photo", (pageWidth-photoSize)/2, y, photoSize, photoSize, false, opts, 0, "")
	return true
}

func (r *Renderer) loadPhoto(src string) ([]byte, string, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return nil, "", errors.New("no photo")
	case strings.HasPrefix(src, "data:"):
		return decodeDataURL(src)
	default:
		if r.uploadDir == "" {
			return nil, "", errors.New("no upload dir")
		}
		name := filepath.Base(src)
		b, err := os.ReadFile(filepath.Join(r.uploadDir, name))
		if err != nil {
			return nil, "", err
		}
		return b, imageTypeFromName(name), nil
	}
}

func imageTypeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "JPG"
	default:
		return "PNG"
	}
}

// decodeDataURL accepts data:image/<type>;base64,<payload>.
func decodeDataURL(s string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, "", errors.New("not a base64 image data url")
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:image/"), ";base64")
	switch mime {
	case "jpeg", "jpg":
		return b, "JPG", nil
	case "png":
		return b, "PNG", nil
	default:
		return nil, "", fmt.Errorf("unsupported image type %q", mime)
	}
}
