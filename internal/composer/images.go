package composer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF format
	"image/jpeg"
	_ "image/png" // Register PNG format
	"math"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/draw"
)

const (
	jpegQuality = 90
	// renderDPI is the resolution images are resampled to for their box.
	renderDPI = 200.0
	// defaultMaxImagePixels caps the decoded size of a single upload.
	defaultMaxImagePixels = 24_000_000
)

// decodedImage is an image normalised to an opaque JPEG that gofpdf accepts.
// width and height are the source dimensions and drive the aspect ratio;
// data may hold a smaller resampled copy.
type decodedImage struct {
	index  int
	name   string
	data   []byte
	width  int
	height int
}

// imageBudget bounds how much work one image may cost.
type imageBudget struct {
	maxPixels int
	maxWidth  int
	maxHeight int
}

// boxBudget returns the budget for an image drawn into a boxW x boxH mm box.
func (c *Composer) boxBudget(boxW, boxH float64) imageBudget {
	return imageBudget{
		maxPixels: c.maxImagePixels,
		maxWidth:  mmToPixels(boxW),
		maxHeight: mmToPixels(boxH),
	}
}

func mmToPixels(mm float64) int {
	return int(math.Ceil(mm / 25.4 * renderDPI))
}

// decodeImage decodes ref and re-encodes it as JPEG on a white background so
// transparent signatures and interlaced PNGs render consistently. The header
// is checked against the pixel budget before any pixel data is decoded.
func decodeImage(ref ImageRef, budget imageBudget) (decodedImage, error) {
	if len(ref.Data) == 0 {
		return decodedImage{}, errors.New("empty image data")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(ref.Data))
	if err != nil {
		return decodedImage{}, fmt.Errorf("decode: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return decodedImage{}, errors.New("image has no pixels")
	}
	if budget.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(budget.maxPixels) {
		return decodedImage{}, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, budget.maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(ref.Data))
	if err != nil {
		return decodedImage{}, fmt.Errorf("decode: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return decodedImage{}, errors.New("image has no pixels")
	}

	w, h := scaledSize(bounds.Dx(), bounds.Dy(), budget.maxWidth, budget.maxHeight)
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Over)
	} else {
		draw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), img, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return decodedImage{}, fmt.Errorf("encode: %w", err)
	}
	return decodedImage{
		name:   ref.Name,
		data:   buf.Bytes(),
		width:  bounds.Dx(),
		height: bounds.Dy(),
	}, nil
}

// scaledSize shrinks width x height to fit maxW x maxH keeping the aspect
// ratio. Images that already fit, and zero limits, are left alone.
func scaledSize(width, height, maxW, maxH int) (int, int) {
	if maxW <= 0 || maxH <= 0 || (width <= maxW && height <= maxH) {
		return width, height
	}
	scale := math.Min(float64(maxW)/float64(width), float64(maxH)/float64(height))
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return max(w, 1), max(h, 1)
}

// decodeAll decodes refs in order, dropping the ones that fail. Each decoded
// image keeps its position in refs.
func decodeAll(kind string, refs []ImageRef, budget imageBudget) ([]decodedImage, []AssetSkipped) {
	var images []decodedImage
	var skipped []AssetSkipped
	for i, ref := range refs {
		img, err := decodeImage(ref, budget)
		if err != nil {
			skipped = append(skipped, AssetSkipped{Kind: kind, Index: i, Name: ref.Name, Reason: err.Error()})
			continue
		}
		img.index = i
		images = append(images, img)
	}
	return images, skipped
}

// register hands the image to gofpdf under key. A registration failure is
// cleared so the rest of the document is unaffected.
func register(pdf *gofpdf.Fpdf, key string, img decodedImage) error {
	pdf.RegisterImageOptionsReader(key, gofpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(img.data))
	if !pdf.Ok() {
		err := pdf.Error()
		pdf.ClearError()
		return err
	}
	return nil
}

func drawImage(pdf *gofpdf.Fpdf, key string, x, y, w, h float64) {
	pdf.ImageOptions(key, x, y, w, h, false, gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
}
