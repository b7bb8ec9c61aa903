package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/factory"
	"ct-scan-inspector/internal/payload"
	"ct-scan-inspector/internal/pipeline"
	"ct-scan-inspector/internal/storage"
	"ct-scan-inspector/internal/worker"
	"ct-scan-inspector/pkg/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type runner interface {
	Run(ctx context.Context, input string, notify pipeline.Notifier) (*models.AnalysisResult, error)
}

// fileResult is the outcome for one input file
type fileResult struct {
	File          string                 `json:"file"`
	RunID         string                 `json:"run_id"`
	Result        *models.AnalysisResult `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ErrorType     string                 `json:"error_type,omitempty"`
	CorrectedPath string                 `json:"corrected_path,omitempty"`
}

func analyzeCmd() *cobra.Command {
	var (
		asJSON       bool
		concurrency  int
		correctedDir string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze one or more CT scan images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.AnalysisTimeout*time.Duration(len(args)))
			defer cancel()

			p, err := factory.NewProviderFactory(cfg, log).CreateProvider(ctx, factory.GeminiProvider)
			if err != nil {
				return err
			}
			defer p.Close()

			fetcher, err := factory.NewStorageFactory(cfg).CreateStorage(factory.LocalStorage)
			if err != nil {
				return err
			}

			results := analyzeFiles(ctx, pipeline.New(p, log, nil), fetcher, args, concurrency, cmd.ErrOrStderr())

			if correctedDir != "" {
				if err := saveCorrected(correctedDir, results); err != nil {
					return err
				}
			}
			if err := printResults(cmd.OutOrStdout(), results, asJSON); err != nil {
				return err
			}

			if n := countFailed(results); n > 0 {
				return fmt.Errorf("%d of %d scans failed", n, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "number of scans analyzed at once")
	cmd.Flags().StringVar(&correctedDir, "save-corrected", "", "directory to write corrected images to")
	return cmd
}

// analyzeFiles runs every file through r, at most concurrency at a time.
// Results keep the order of files.
func analyzeFiles(ctx context.Context, r runner, fetcher storage.ImageFetcher, files []string, concurrency int, progress io.Writer) []fileResult {
	results := make([]fileResult, len(files))
	var progressMu sync.Mutex

	pool := worker.NewPool(concurrency)
	pool.Start()
	defer pool.Close()

	for i, file := range files {
		pool.Submit(func() {
			runID := uuid.New().String()
			res := fileResult{File: file, RunID: runID}

			img, err := fetcher.FetchImage(ctx, file)
			if err == nil {
				input := payload.FromBytes(img.ContentType, img.Data).DataURI()
				res.Result, err = r.Run(pipeline.WithRunID(ctx, runID), input, func(status string) {
					progressMu.Lock()
					fmt.Fprintf(progress, "[%s] %s\n", filepath.Base(file), status)
					progressMu.Unlock()
				})
			}
			if err != nil {
				appErr := apperrors.Normalize(err)
				res.Error = apperrors.DisplayMessage(appErr)
				res.ErrorType = string(appErr.Type)
			}
			results[i] = res
		})
	}
	pool.Wait()
	return results
}

func saveCorrected(dir string, results []fileResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i := range results {
		r := &results[i]
		if r.Result == nil || r.Result.CorrectedImage == nil {
			continue
		}
		img, err := payload.Parse(*r.Result.CorrectedImage)
		if err != nil {
			return err
		}
		data, err := img.Decode()
		if err != nil {
			return fmt.Errorf("decode corrected image for %s: %w", r.File, err)
		}

		ext := ".img"
		if mt := mimetype.Lookup(img.MediaType); mt != nil {
			ext = mt.Extension()
		}
		base := strings.TrimSuffix(filepath.Base(r.File), filepath.Ext(r.File))
		path := filepath.Join(dir, base+".corrected"+ext)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		r.CorrectedPath = path
	}
	return nil
}

func printResults(w io.Writer, results []fileResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		fmt.Fprintf(w, "== %s (run %s)\n", r.File, r.RunID)
		if r.Error != "" {
			fmt.Fprintf(w, "error: %s\n\n", r.Error)
			continue
		}
		fmt.Fprintf(w, "blurry: %t\n", r.Result.IsBlurry)
		if r.CorrectedPath != "" {
			fmt.Fprintf(w, "corrected image: %s\n", r.CorrectedPath)
		}
		fmt.Fprintf(w, "\n%s\n\n", r.Result.Diagnosis)
	}
	return nil
}

func countFailed(results []fileResult) int {
	n := 0
	for _, r := range results {
		if r.Error != "" {
			n++
		}
	}
	return n
}
