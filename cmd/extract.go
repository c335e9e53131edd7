package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/btraven00/refsift/internal/pipeline"
	"github.com/btraven00/refsift/internal/segment"
)

var (
	numWorkers    int
	verifyRefs    bool
	discoverRefs  bool
	minConfidence float64
	showProgress  bool
	ocrLanguage   string
	styleHint     string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file...]",
	Short: "Extract structured references from documents",
	Long: `Extract bibliographic references from text and PDF documents.

This command locates the reference section of each document, splits it
into citation candidates, parses them into structured records with
per-field confidence, and merges duplicates across all inputs. With
--verify, DOIs, ISBNs, and URLs are checked against external resolvers;
with --discover, search APIs corroborate the extracted records.

Examples:
  refsift extract paper.pdf
  refsift extract --output json paper.pdf
  refsift extract --verify --min-confidence 0.5 *.pdf
  refsift extract --workers 8 --progress corpus/*.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().IntVar(&numWorkers, "workers", runtime.NumCPU(), "number of parallel workers for processing")
	extractCmd.Flags().BoolVar(&verifyRefs, "verify", false, "check identifiers against external resolvers")
	extractCmd.Flags().BoolVar(&discoverRefs, "discover", false, "query search APIs for corroborating records")
	extractCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.0, "minimum confidence threshold for including references")
	extractCmd.Flags().BoolVar(&showProgress, "progress", true, "show progress during batch processing")
	extractCmd.Flags().StringVar(&ocrLanguage, "ocr-language", "eng", "tesseract language for scanned documents")
}

func pipelineOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.EnableVerify = verifyRefs
	opts.EnableDiscovery = discoverRefs
	opts.Workers = numWorkers
	opts.Acquire.OCRLanguage = ocrLanguage
	opts.StyleHint = segment.Style(styleHint)
	return opts
}

func runExtract(cmd *cobra.Command, args []string) error {
	p := pipeline.New(pipelineOptions())

	if len(args) == 1 {
		return processSingleDocument(p, args[0])
	}

	return processBatchParallel(p, args)
}

func processSingleDocument(p *pipeline.Pipeline, filename string) error {
	if !quiet {
		fmt.Fprintf(os.Stderr, "Processing %s...\n", filename)
	}

	result, err := p.ProcessDocument(context.Background(), filename, pipeline.KindForPath(filename))
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", filename, err)
	}

	return outputDocumentResults([]*pipeline.DocumentResult{result})
}

func processBatchParallel(p *pipeline.Pipeline, filenames []string) error {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	if !quiet {
		fmt.Fprintf(os.Stderr, "🚀 Processing %d files with %d workers...\n", len(filenames), numWorkers)
	}

	pool := pipeline.NewWorkerPool(p, numWorkers)
	pool.Start()

	var tracker *pipeline.ProgressTracker
	if !quiet {
		tracker = pipeline.NewProgressTracker(os.Stderr)
	}

	progressDone := make(chan struct{})
	if tracker != nil && showProgress {
		go tracker.RenderEvery(500*time.Millisecond, progressDone)
	}

	go func() {
		for update := range pool.Progress() {
			if tracker != nil {
				tracker.Observe(update)
			}
		}
	}()

	for i, filename := range filenames {
		pool.SubmitTask(pipeline.DocumentTask{
			ID:   fmt.Sprintf("task-%d", i),
			Path: filename,
		})
	}

	var results []*pipeline.DocumentResult
	var failedFiles []string
	var totalTime time.Duration

	for i := 0; i < len(filenames); i++ {
		result := <-pool.Results()
		if result.Error != nil {
			failedFiles = append(failedFiles, result.Task.Path)
			continue
		}

		results = append(results, result.Result)
		totalTime += result.Result.Elapsed
	}

	pool.Wait()
	close(progressDone)

	if tracker != nil && showProgress {
		tracker.Render()
		fmt.Fprintln(os.Stderr)
	}

	if !quiet {
		fmt.Fprintf(os.Stderr, "✅ Completed processing %d files", len(filenames))
		if len(failedFiles) > 0 {
			fmt.Fprintf(os.Stderr, " (%d failed)", len(failedFiles))
		}
		fmt.Fprintf(os.Stderr, " in %v\n", totalTime)

		if len(failedFiles) > 0 {
			fmt.Fprintf(os.Stderr, "Failed files: %v\n", failedFiles)
		}
	}

	if len(results) == 0 {
		fmt.Println("⚠️  No files were successfully processed")
		return nil
	}

	return outputDocumentResults(results)
}

func baseName(path string) string {
	return filepath.Base(path)
}
