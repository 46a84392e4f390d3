package service

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/google/uuid"

	"billnorm/internal/cleanup"
	"billnorm/internal/domain"
	"billnorm/internal/imaging"
	"billnorm/internal/orientation"
	"billnorm/internal/port"
	"billnorm/internal/resolver"
)

// PipelineConfig holds document pipeline settings.
type PipelineConfig struct {
	Concurrency int
	OutputDir   string
	// ContinueOnPageError keeps a document alive when a page fails
	// orientation: the failed page proceeds uncorrected. When false the
	// whole document fails on the first page error.
	ContinueOnPageError bool
}

// Pipeline runs a document through orientation correction, repetitive-strip
// detection, candidate collection and field resolution. Orientation fans out
// across pages; strip detection is the fan-in barrier that needs every page.
type Pipeline struct {
	orientationSvc *orientation.Service
	detector       *cleanup.Detector
	resolver       *resolver.Resolver
	candidates     port.CandidateSource
	shieldStore    port.ShieldStore
	cfg            PipelineConfig
}

// NewPipeline creates a Pipeline. candidates and shieldStore are optional:
// without a candidate source the pipeline stops after strip detection,
// without a shield store shields are only returned, not persisted.
func NewPipeline(
	orientationSvc *orientation.Service,
	detector *cleanup.Detector,
	res *resolver.Resolver,
	candidates port.CandidateSource,
	shieldStore port.ShieldStore,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		orientationSvc: orientationSvc,
		detector:       detector,
		resolver:       res,
		candidates:     candidates,
		shieldStore:    shieldStore,
		cfg:            cfg,
	}
}

type pageOutcome struct {
	index  int
	result *domain.OrientationResult
	err    error
}

// ProcessDocument runs the full normalization pipeline for one document.
// Pages are caller-owned; orientation outcomes are applied to them explicitly
// before the result is returned.
func (p *Pipeline) ProcessDocument(ctx context.Context, documentID uuid.UUID, pages []domain.PageArtifact) (*domain.DocumentResult, error) {
	log.Printf("service.Pipeline: document %s — %d pages, concurrency %d",
		documentID, len(pages), p.cfg.Concurrency)

	outcomes := p.correctPages(ctx, pages)

	result := &domain.DocumentResult{
		DocumentID: documentID,
		Pages:      pages,
	}

	for _, o := range outcomes {
		if o.err != nil {
			if !p.cfg.ContinueOnPageError {
				return nil, fmt.Errorf("page %d of document %s: %w", pages[o.index].PageNumber, documentID, o.err)
			}
			log.Printf("service.Pipeline: document %s page %d failed orientation (%v), continuing uncorrected",
				documentID, pages[o.index].PageNumber, o.err)
			continue
		}
		o.result.ApplyTo(&pages[o.index])
		result.Orientations = append(result.Orientations, *o.result)
	}

	strips, err := p.detectStrips(ctx, documentID, pages)
	if err != nil {
		return nil, err
	}
	result.Strips = strips

	if p.candidates != nil {
		candidates, err := p.candidates.Candidates(ctx, documentID, strips.Shields)
		if err != nil {
			return nil, fmt.Errorf("collecting candidates for document %s: %w", documentID, err)
		}
		result.Resolution = p.resolver.ResolveFields(candidates)
	}

	return result, nil
}

// correctPages runs orientation detection per page on a bounded worker pool.
// Every page gets an outcome; ordering follows the input.
func (p *Pipeline) correctPages(ctx context.Context, pages []domain.PageArtifact) []pageOutcome {
	sem := make(chan struct{}, p.cfg.Concurrency)
	outcomes := make([]pageOutcome, len(pages))
	var wg sync.WaitGroup

	for i := range pages {
		if ctx.Err() != nil {
			outcomes[i] = pageOutcome{index: i, err: ctx.Err()}
			continue
		}
		page := pages[i]
		idx := i

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			res, err := p.orientationSvc.DetectAndCorrect(page.ID, page.ImagePath, p.cfg.OutputDir)
			outcomes[idx] = pageOutcome{index: idx, result: res, err: err}
		}()
	}
	wg.Wait()
	return outcomes
}

// detectStrips loads every page's current image and runs multi-page
// repetitive-strip detection, persisting the shields when a store is wired.
func (p *Pipeline) detectStrips(ctx context.Context, documentID uuid.UUID, pages []domain.PageArtifact) (*domain.MultiPageStripResult, error) {
	images := make([]*image.Gray, 0, len(pages))
	for i := range pages {
		img, err := imaging.Load(pages[i].ImagePath)
		if err != nil {
			return nil, fmt.Errorf("loading page %d for strip detection: %w", pages[i].PageNumber, err)
		}
		images = append(images, img)
	}

	strips := p.detector.DetectMultiPageStrips(images)

	if p.shieldStore != nil && len(strips.Shields) > 0 {
		if err := p.shieldStore.SaveShields(ctx, documentID, strips.Shields); err != nil {
			return nil, fmt.Errorf("persisting shields for document %s: %w", documentID, err)
		}
	}
	return strips, nil
}
