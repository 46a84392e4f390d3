package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"billnorm/internal/domain"
)

// Load decodes a PNG or JPEG file into a grayscale image.
func Load(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, domain.ErrUnsupportedImage)
	}
	return ToGray(img), nil
}

// ToGray converts any image to 8-bit grayscale using the standard luminance model.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Save writes a grayscale image as PNG, creating the parent directory if absent.
func Save(img *image.Gray, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding PNG %s: %w", path, err)
	}
	return nil
}

// Downsample shrinks the image so that its largest dimension is at most
// maxDim, averaging source pixels per destination pixel. Images already
// within bounds are returned unchanged. Geometry ratios are preserved, so
// angle measurements on the result stay accurate.
func Downsample(img *image.Gray, maxDim int) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	scale := 1
	for w/scale > maxDim || h/scale > maxDim {
		scale++
	}
	dw, dh := w/scale, h/scale
	out := image.NewGray(image.Rect(0, 0, dw, dh))
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			var sum, n int
			for sy := y * scale; sy < (y+1)*scale && sy < h; sy++ {
				for sx := x * scale; sx < (x+1)*scale && sx < w; sx++ {
					sum += int(img.GrayAt(sx, sy).Y)
					n++
				}
			}
			out.SetGray(x, y, color.Gray{Y: uint8(sum / n)})
		}
	}
	return out
}
