// Command normalize runs the document normalization pipeline over a directory
// of scanned page images: orientation/deskew correction, repetitive
// header/footer detection, and (when a candidates file is supplied) field
// resolution. Corrected images land in the configured output directory;
// review exports are written when configured.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"billnorm/internal/cleanup"
	"billnorm/internal/config"
	"billnorm/internal/csvexport"
	"billnorm/internal/domain"
	"billnorm/internal/orientation"
	"billnorm/internal/port"
	"billnorm/internal/resolver"
	"billnorm/internal/review"
	"billnorm/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	inputDir := flag.String("input", "", "directory of page images (required)")
	candidatesPath := flag.String("candidates", "", "JSON file of field candidates from the extraction system")
	flag.Parse()

	if *inputDir == "" {
		return fmt.Errorf("usage: normalize -input <dir> [-candidates <file.json>]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pages, err := listPages(*inputDir)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page images found in %s", *inputDir)
	}

	var candidates port.CandidateSource
	if *candidatesPath != "" {
		byField, err := loadCandidates(*candidatesPath)
		if err != nil {
			return err
		}
		candidates = service.CandidateSourceFunc(func(ctx context.Context, documentID uuid.UUID, shields []domain.CleanupShield) (map[string][]domain.FieldCandidate, error) {
			return byField, nil
		})
	}

	pipeline := service.NewPipeline(
		orientation.NewService(orientation.Config{
			MaxSkewAngle:  cfg.Orientation.MaxSkewAngle,
			MinConfidence: cfg.Orientation.MinConfidence,
			EnableDeskew:  cfg.Orientation.EnableDeskew,
		}),
		cleanup.NewDetector(cleanup.Config{
			HeaderStripHeight:   cfg.Strips.HeaderStripHeight,
			FooterStripHeight:   cfg.Strips.FooterStripHeight,
			SimilarityThreshold: cfg.Strips.SimilarityThreshold,
			BaseConfidence:      cfg.Strips.BaseConfidence,
			MaxConfidenceBoost:  cfg.Strips.MaxConfidenceBoost,
			IoUThreshold:        cfg.Strips.IoUThreshold,
		}),
		resolver.New(),
		candidates,
		nil, // shield persistence is wired by the hosting system
		service.PipelineConfig{
			Concurrency:         cfg.Pipeline.Concurrency,
			OutputDir:           cfg.Pipeline.OutputDir,
			ContinueOnPageError: cfg.Pipeline.ContinueOnPageError,
		},
	)

	documentID := uuid.New()
	result, err := pipeline.ProcessDocument(context.Background(), documentID, pages)
	if err != nil {
		return fmt.Errorf("processing document: %w", err)
	}

	if result.Resolution != nil {
		if cfg.Export.CSVPath != "" {
			if err := exportCSV(cfg.Export.CSVPath, documentID.String(), result.Resolution); err != nil {
				return err
			}
			log.Printf("normalize: wrote CSV export to %s", cfg.Export.CSVPath)
		}
		if cfg.Export.XLSXPath != "" {
			if err := review.WriteWorkbook(cfg.Export.XLSXPath, documentID.String(), result.Resolution); err != nil {
				return err
			}
			log.Printf("normalize: wrote review workbook to %s", cfg.Export.XLSXPath)
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// listPages builds page artifacts from the PNG/JPEG files in dir, in
// lexicographic filename order.
func listPages(dir string) ([]domain.PageArtifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	pages := make([]domain.PageArtifact, 0, len(paths))
	for i, p := range paths {
		pages = append(pages, domain.PageArtifact{
			ID:         uuid.New(),
			PageNumber: i + 1,
			ImagePath:  p,
		})
	}
	return pages, nil
}

// loadCandidates reads an extraction system's candidate dump: a JSON map of
// field name to candidate list.
func loadCandidates(path string) (map[string][]domain.FieldCandidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidates file %s: %w", path, err)
	}
	var byField map[string][]domain.FieldCandidate
	if err := json.Unmarshal(data, &byField); err != nil {
		return nil, fmt.Errorf("parsing candidates file %s: %w", path, err)
	}
	return byField, nil
}

func exportCSV(path, documentID string, result *domain.ResolutionResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV export %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(csvexport.BOM); err != nil {
		return err
	}
	w := csvexport.NewWriter(f)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteResult(documentID, result); err != nil {
		return err
	}
	return w.Flush()
}
