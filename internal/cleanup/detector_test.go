package cleanup_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billnorm/internal/cleanup"
	"billnorm/internal/domain"
)

// blankPage returns a uniformly white 200x250 page.
func blankPage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 200, 250))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// withHeaderContent stamps a checkerboard into the top band so its variance is
// far above the content threshold.
func withHeaderContent(img *image.Gray) *image.Gray {
	rows := int(float64(img.Bounds().Dy()) * 0.08)
	for y := 0; y < rows; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if (x+y)%2 == 0 {
				img.Pix[img.PixOffset(x, y)] = 0
			}
		}
	}
	return img
}

func TestDetectMultiPageStrips_RepeatingHeader(t *testing.T) {
	d := cleanup.NewDetector(cleanup.DefaultConfig())

	// Header repeats on pages 1-4; page 5's header is blank paper.
	pages := []*image.Gray{
		withHeaderContent(blankPage()),
		withHeaderContent(blankPage()),
		withHeaderContent(blankPage()),
		withHeaderContent(blankPage()),
		blankPage(),
	}

	result := d.DetectMultiPageStrips(pages)
	assert.Equal(t, 5, result.PagesAnalyzed)
	assert.Equal(t, 4, result.HeaderMatchCount)
	assert.Equal(t, 5, result.FooterMatchCount, "blank footers all match each other")

	require.Len(t, result.Shields, 1, "blank footers must not produce a shield")
	shield := result.Shields[0]
	assert.Equal(t, domain.ShieldRepetitiveHeader, shield.ShieldType)
	// 0.65 base + (4/5)*0.25 boost.
	assert.InDelta(t, 0.85, shield.Confidence, 1e-9)
	assert.Equal(t, 0.0, shield.BBox.Y)
	assert.InDelta(t, 0.08, shield.BBox.Height, 1e-9)
	assert.Contains(t, shield.WhyDetected, "4/5 pages")
}

func TestDetectMultiPageStrips_NoRepetition(t *testing.T) {
	d := cleanup.NewDetector(cleanup.DefaultConfig())

	// Only the first page has a printed header.
	pages := []*image.Gray{
		withHeaderContent(blankPage()),
		blankPage(),
		blankPage(),
	}

	result := d.DetectMultiPageStrips(pages)
	assert.Equal(t, 1, result.HeaderMatchCount)
	assert.Empty(t, result.Shields)
}

func TestDetectMultiPageStrips_EmptyAndSinglePage(t *testing.T) {
	d := cleanup.NewDetector(cleanup.DefaultConfig())

	empty := d.DetectMultiPageStrips(nil)
	assert.Equal(t, 0, empty.PagesAnalyzed)
	assert.Empty(t, empty.Shields)

	single := d.DetectMultiPageStrips([]*image.Gray{withHeaderContent(blankPage())})
	assert.Equal(t, 1, single.PagesAnalyzed)
	assert.Equal(t, 1, single.HeaderMatchCount)
	assert.Empty(t, single.Shields, "a band on one page is not repetitive")
}

func TestStripsAreSimilar(t *testing.T) {
	blank := domain.StripData{MeanIntensity: 255, Variance: 0, HasContent: false}
	printed := domain.StripData{MeanIntensity: 130, Variance: 16000, HasContent: true}

	t.Run("two blank strips always match", func(t *testing.T) {
		other := domain.StripData{MeanIntensity: 10, Variance: 50, HasContent: false}
		assert.True(t, cleanup.StripsAreSimilar(blank, other, 0.99))
	})

	t.Run("blank vs printed never match", func(t *testing.T) {
		assert.False(t, cleanup.StripsAreSimilar(blank, printed, 0.0))
	})

	t.Run("identical printed strips match", func(t *testing.T) {
		assert.True(t, cleanup.StripsAreSimilar(printed, printed, 1.0))
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		// meanSimilarity = 1 - 51/255 = 0.8, varianceRatio = 1 → similarity 0.9.
		a := domain.StripData{MeanIntensity: 100, Variance: 500, HasContent: true}
		b := domain.StripData{MeanIntensity: 151, Variance: 500, HasContent: true}
		assert.True(t, cleanup.StripsAreSimilar(a, b, 0.9))
		assert.False(t, cleanup.StripsAreSimilar(a, b, 0.900001))
	})
}

func TestCalculateConfidenceBoost(t *testing.T) {
	assert.Equal(t, 0.0, cleanup.CalculateConfidenceBoost(1, 5, 0.25), "single match gets no boost")
	assert.Equal(t, 0.0, cleanup.CalculateConfidenceBoost(1, 1, 0.25), "single page gets no boost")
	assert.InDelta(t, 0.25, cleanup.CalculateConfidenceBoost(5, 5, 0.25), 1e-9, "full recurrence gets the max")
	assert.InDelta(t, 0.15, cleanup.CalculateConfidenceBoost(3, 5, 0.25), 1e-9)
}

func TestBoostMultiPageConfidence(t *testing.T) {
	d := cleanup.NewDetector(cleanup.DefaultConfig())

	headerBox := domain.NormalizedBBox{X: 0, Y: 0, Width: 1, Height: 0.08}
	ref := domain.CleanupShield{
		ShieldType:  domain.ShieldRepetitiveHeader,
		BBox:        headerBox,
		Confidence:  0.65,
		WhyDetected: "repetitive header band",
	}

	t.Run("matching shields across pages raise confidence", func(t *testing.T) {
		pageShields := [][]domain.CleanupShield{
			{ref},
			{{ShieldType: domain.ShieldRepetitiveHeader, BBox: headerBox, Confidence: 0.6}},
			{{ShieldType: domain.ShieldRepetitiveHeader, BBox: headerBox, Confidence: 0.7}},
		}
		boosted := d.BoostMultiPageConfidence(pageShields)
		require.Len(t, boosted, 1)
		// 0.65 + (3/3)*0.25
		assert.InDelta(t, 0.9, boosted[0].Confidence, 1e-9)
		assert.Contains(t, boosted[0].WhyDetected, "(found on 3/3 pages)")
	})

	t.Run("different type does not match", func(t *testing.T) {
		pageShields := [][]domain.CleanupShield{
			{ref},
			{{ShieldType: domain.ShieldRepetitiveFooter, BBox: headerBox, Confidence: 0.6}},
		}
		boosted := d.BoostMultiPageConfidence(pageShields)
		require.Len(t, boosted, 1)
		assert.InDelta(t, 0.65, boosted[0].Confidence, 1e-9)
		assert.Contains(t, boosted[0].WhyDetected, "(found on 1/2 pages)")
	})

	t.Run("low IoU does not match", func(t *testing.T) {
		elsewhere := domain.NormalizedBBox{X: 0, Y: 0.5, Width: 1, Height: 0.08}
		pageShields := [][]domain.CleanupShield{
			{ref},
			{{ShieldType: domain.ShieldRepetitiveHeader, BBox: elsewhere, Confidence: 0.6}},
		}
		boosted := d.BoostMultiPageConfidence(pageShields)
		require.Len(t, boosted, 1)
		assert.InDelta(t, 0.65, boosted[0].Confidence, 1e-9)
	})

	t.Run("confidence is capped at one", func(t *testing.T) {
		high := ref
		high.Confidence = 0.95
		pageShields := [][]domain.CleanupShield{
			{high},
			{{ShieldType: domain.ShieldRepetitiveHeader, BBox: headerBox, Confidence: 0.9}},
		}
		boosted := d.BoostMultiPageConfidence(pageShields)
		require.Len(t, boosted, 1)
		assert.Equal(t, 1.0, boosted[0].Confidence)
	})

	t.Run("single page passes through", func(t *testing.T) {
		boosted := d.BoostMultiPageConfidence([][]domain.CleanupShield{{ref}})
		require.Len(t, boosted, 1)
		assert.Equal(t, ref, boosted[0])
	})

	t.Run("no pages yields nil", func(t *testing.T) {
		assert.Nil(t, d.BoostMultiPageConfidence(nil))
	})
}
