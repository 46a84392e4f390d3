package service_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billnorm/internal/cleanup"
	"billnorm/internal/domain"
	"billnorm/internal/imaging"
	"billnorm/internal/orientation"
	"billnorm/internal/resolver"
	"billnorm/internal/service"
)

// billPage returns a white page with horizontal rules and a printed header
// band, the shape of an upright scanned bill.
func billPage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 200, 250))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := 40; y < 240; y += 20 {
		for x := 0; x < 200; x++ {
			img.Pix[img.PixOffset(x, y)] = 0
		}
	}
	rows := int(250 * 0.08)
	for y := 0; y < rows; y++ {
		for x := 0; x < 200; x++ {
			if (x+y)%2 == 0 {
				img.Pix[img.PixOffset(x, y)] = 0
			}
		}
	}
	return img
}

// writePages saves n identical bill pages into dir and returns their artifacts.
func writePages(t *testing.T, dir string, n int) []domain.PageArtifact {
	t.Helper()
	pages := make([]domain.PageArtifact, 0, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("page%d.png", i+1))
		require.NoError(t, imaging.Save(billPage(), path))
		pages = append(pages, domain.PageArtifact{
			ID:         uuid.New(),
			PageNumber: i + 1,
			ImagePath:  path,
		})
	}
	return pages
}

type shieldStoreStub struct {
	saved []domain.CleanupShield
	err   error
}

func (s *shieldStoreStub) SaveShields(ctx context.Context, documentID uuid.UUID, shields []domain.CleanupShield) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, shields...)
	return nil
}

func TestProcessDocument_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 3)
	store := &shieldStoreStub{}

	candidates := service.CandidateSourceFunc(func(ctx context.Context, documentID uuid.UUID, shields []domain.CleanupShield) (map[string][]domain.FieldCandidate, error) {
		assert.NotEmpty(t, shields, "candidate source sees the detected shields")
		return map[string][]domain.FieldCandidate{
			"vendor_name":    {{ValueRaw: "Acme Corp", Score: 90}},
			"invoice_number": {{ValueRaw: "INV-001", Score: 85}},
		}, nil
	})

	pipeline := service.NewPipeline(
		orientation.NewService(orientation.DefaultConfig()),
		cleanup.NewDetector(cleanup.DefaultConfig()),
		resolver.New(),
		candidates,
		store,
		service.PipelineConfig{Concurrency: 2, OutputDir: dir},
	)

	docID := uuid.New()
	result, err := pipeline.ProcessDocument(context.Background(), docID, pages)
	require.NoError(t, err)

	assert.Equal(t, docID, result.DocumentID)
	require.Len(t, result.Orientations, 3)
	for i, page := range pages {
		assert.Equal(t, result.Orientations[i].CorrectedImagePath, page.ImagePath,
			"orientation outcome is applied to the page artifact")
		assert.FileExists(t, page.ImagePath)
	}

	require.NotNil(t, result.Strips)
	assert.Equal(t, 3, result.Strips.PagesAnalyzed)
	require.NotEmpty(t, result.Strips.Shields, "identical headers across pages produce a shield")
	assert.Equal(t, domain.ShieldRepetitiveHeader, result.Strips.Shields[0].ShieldType)
	assert.Equal(t, result.Strips.Shields, store.saved, "shields are persisted")

	require.NotNil(t, result.Resolution)
	assert.Contains(t, result.Resolution.Fields, "vendor_name")
	assert.Contains(t, result.Resolution.Fields, "invoice_number")
}

func TestProcessDocument_NoCandidateSource(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 2)

	pipeline := service.NewPipeline(
		orientation.NewService(orientation.DefaultConfig()),
		cleanup.NewDetector(cleanup.DefaultConfig()),
		resolver.New(),
		nil,
		nil,
		service.PipelineConfig{Concurrency: 1, OutputDir: dir},
	)

	result, err := pipeline.ProcessDocument(context.Background(), uuid.New(), pages)
	require.NoError(t, err)
	assert.Nil(t, result.Resolution, "without candidates the pipeline stops after strip detection")
	assert.NotNil(t, result.Strips)
}

func TestProcessDocument_PageErrorFailsDocument(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 2)
	pages[1].ImagePath = filepath.Join(dir, "missing.png")

	pipeline := service.NewPipeline(
		orientation.NewService(orientation.DefaultConfig()),
		cleanup.NewDetector(cleanup.DefaultConfig()),
		resolver.New(),
		nil,
		nil,
		service.PipelineConfig{Concurrency: 2, OutputDir: dir},
	)

	_, err := pipeline.ProcessDocument(context.Background(), uuid.New(), pages)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
}

func TestProcessDocument_ContinueOnPageError(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 3)
	pages[1].ImagePath = filepath.Join(dir, "missing.png")

	pipeline := service.NewPipeline(
		orientation.NewService(orientation.DefaultConfig()),
		cleanup.NewDetector(cleanup.DefaultConfig()),
		resolver.New(),
		nil,
		nil,
		service.PipelineConfig{Concurrency: 2, OutputDir: dir, ContinueOnPageError: true},
	)

	_, err := pipeline.ProcessDocument(context.Background(), uuid.New(), pages)
	// The uncorrected page still cannot be loaded for strip detection.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strip detection")
}

func TestProcessDocument_CandidateSourceError(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 2)

	wantErr := errors.New("extraction backend down")
	candidates := service.CandidateSourceFunc(func(ctx context.Context, documentID uuid.UUID, shields []domain.CleanupShield) (map[string][]domain.FieldCandidate, error) {
		return nil, wantErr
	})

	pipeline := service.NewPipeline(
		orientation.NewService(orientation.DefaultConfig()),
		cleanup.NewDetector(cleanup.DefaultConfig()),
		resolver.New(),
		candidates,
		nil,
		service.PipelineConfig{Concurrency: 1, OutputDir: dir},
	)

	_, err := pipeline.ProcessDocument(context.Background(), uuid.New(), pages)
	assert.ErrorIs(t, err, wantErr)
}

func TestProcessDocument_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, 2)

	pipeline := service.NewPipeline(
		orientation.NewService(orientation.DefaultConfig()),
		cleanup.NewDetector(cleanup.DefaultConfig()),
		resolver.New(),
		nil,
		nil,
		service.PipelineConfig{Concurrency: 1, OutputDir: dir},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.ProcessDocument(ctx, uuid.New(), pages)
	assert.ErrorIs(t, err, context.Canceled)
}
