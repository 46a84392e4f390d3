package imaging

import (
	"image"
	"math"

	"billnorm/internal/domain"
)

// Rotate returns a copy of img rotated clockwise by a right-angle rotation.
// 90 and 270 swap width and height; 0 and 180 preserve them. Any other angle
// is a programming error upstream and returns domain.ErrInvalidRotation.
func Rotate(img *image.Gray, rotation domain.Rotation) (*image.Gray, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	switch rotation {
	case domain.Rotate0:
		out := image.NewGray(image.Rect(0, 0, w, h))
		copy(out.Pix, img.Pix)
		return out, nil
	case domain.Rotate90:
		out := image.NewGray(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.SetGray(h-1-y, x, img.GrayAt(x, y))
			}
		}
		return out, nil
	case domain.Rotate180:
		out := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.SetGray(w-1-x, h-1-y, img.GrayAt(x, y))
			}
		}
		return out, nil
	case domain.Rotate270:
		out := image.NewGray(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.SetGray(y, w-1-x, img.GrayAt(x, y))
			}
		}
		return out, nil
	}
	return nil, domain.ErrInvalidRotation
}

// RotateArbitrary rotates img by degrees around its center using
// nearest-neighbor sampling. Destination pixels whose source falls outside
// the image stay at the scan background (white).
func RotateArbitrary(img *image.Gray, degrees float64) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for i := range out.Pix {
		out.Pix[i] = 255
	}

	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx, cy := float64(w)/2, float64(h)/2

	// Inverse mapping: for each destination pixel, sample the source.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			sx := int(math.Round(cx + dx*cos + dy*sin))
			sy := int(math.Round(cy - dx*sin + dy*cos))
			if sx >= 0 && sx < w && sy >= 0 && sy < h {
				out.SetGray(x, y, img.GrayAt(sx, sy))
			}
		}
	}
	return out
}

// InverseRotation returns the rotation that undoes r.
func InverseRotation(r domain.Rotation) domain.Rotation {
	return domain.Rotation((360 - int(r)) % 360)
}
