package imaging

import (
	"image"
)

// edgeThreshold is the Sobel gradient magnitude above which a pixel counts
// as an edge.
const edgeThreshold = 96

// DetectEdges produces a binary edge map (255 = edge) from a grayscale image
// using 3x3 Gaussian smoothing followed by Sobel gradients, a Canny-equivalent
// pass sufficient for line voting.
func DetectEdges(img *image.Gray) *image.Gray {
	blurred := gaussian3(img)
	w, h := blurred.Bounds().Dx(), blurred.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -int(blurred.GrayAt(x-1, y-1).Y) + int(blurred.GrayAt(x+1, y-1).Y) +
				-2*int(blurred.GrayAt(x-1, y).Y) + 2*int(blurred.GrayAt(x+1, y).Y) +
				-int(blurred.GrayAt(x-1, y+1).Y) + int(blurred.GrayAt(x+1, y+1).Y)
			gy := -int(blurred.GrayAt(x-1, y-1).Y) - 2*int(blurred.GrayAt(x, y-1).Y) - int(blurred.GrayAt(x+1, y-1).Y) +
				int(blurred.GrayAt(x-1, y+1).Y) + 2*int(blurred.GrayAt(x, y+1).Y) + int(blurred.GrayAt(x+1, y+1).Y)
			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			// |gx|+|gy| approximates the gradient magnitude without a sqrt.
			if gx+gy >= edgeThreshold*2 {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}

// EdgeDensity returns the fraction of edge pixels in a binary edge map.
func EdgeDensity(edges *image.Gray) float64 {
	total := len(edges.Pix)
	if total == 0 {
		return 0
	}
	count := 0
	for _, p := range edges.Pix {
		if p != 0 {
			count++
		}
	}
	return float64(count) / float64(total)
}

// gaussian3 applies a 3x3 Gaussian kernel (1-2-1 separable, /16).
func gaussian3(img *image.Gray) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, img.Pix)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			sum := int(img.GrayAt(x-1, y-1).Y) + 2*int(img.GrayAt(x, y-1).Y) + int(img.GrayAt(x+1, y-1).Y) +
				2*int(img.GrayAt(x-1, y).Y) + 4*int(img.GrayAt(x, y).Y) + 2*int(img.GrayAt(x+1, y).Y) +
				int(img.GrayAt(x-1, y+1).Y) + 2*int(img.GrayAt(x, y+1).Y) + int(img.GrayAt(x+1, y+1).Y)
			out.Pix[out.PixOffset(x, y)] = uint8(sum / 16)
		}
	}
	return out
}
