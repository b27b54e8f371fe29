package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maltedev/supplier-extractor/internal/config"
	"github.com/maltedev/supplier-extractor/internal/extractor"
	"github.com/maltedev/supplier-extractor/internal/fetch"
	"github.com/maltedev/supplier-extractor/internal/models"
	"github.com/maltedev/supplier-extractor/internal/pricing"
	"github.com/maltedev/supplier-extractor/internal/queue"
	"github.com/maltedev/supplier-extractor/internal/ratelimit"
	"github.com/maltedev/supplier-extractor/internal/storage"
	"github.com/maltedev/supplier-extractor/internal/supplier"
	"github.com/maltedev/supplier-extractor/internal/variants"
)

var extractCmd = &cobra.Command{
	Use:   "extract [url...]",
	Short: "Extract product URLs from arguments or a file",
	Long: "Extract runs each URL through its supplier extractor, one at a time, " +
		"and records the outcome in a state file. Rerunning with the same state " +
		"file skips URLs that already finished.",
	RunE: runExtract,
}

var (
	extractFile         string
	extractStateFile    string
	extractMaxRetries   int
	extractKeepProducts bool
	extractNoBrowser    bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "File with one URL per line")
	extractCmd.Flags().StringVarP(&extractStateFile, "state", "s", "bulk-results.json", "Resumable state file")
	extractCmd.Flags().IntVar(&extractMaxRetries, "max-retries", 1, "Retries for failed extractions")
	extractCmd.Flags().BoolVar(&extractKeepProducts, "keep-products", false, "Store full product records in the state file")
	extractCmd.Flags().BoolVar(&extractNoBrowser, "no-browser", false, "Skip browser rendering even for suppliers that use it")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	urls, err := collectURLs(args, extractFile)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("no URLs given")
	}

	store, err := storage.NewResultStorage(extractStateFile)
	if err != nil {
		return fmt.Errorf("failed to open state file: %w", err)
	}
	if _, err := store.AddPending(urls, func(u string) string {
		tag, _ := supplier.Identify(u)
		return string(tag)
	}); err != nil {
		return err
	}

	var renderer extractor.RendererProvider
	if !extractNoBrowser && !cfg.Browser.Disabled {
		renderer = extractor.PlaywrightRenderer(cfg.Browser.Headless, logger)
	}

	factory, err := extractor.NewFactory(extractor.Deps{
		Fetcher: fetch.NewHTTPFetcher(nil, logger),
		Pricing: pricing.NewNormalizer(cfg.PricingPolicy()),
		Colors:  variants.DefaultColorTable(),
		Logger:  logger,
		Options: cfg.ExtractionOptions(),
	}, renderer)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r := &runner{
		extractors:   factory,
		store:        store,
		limiter:      ratelimit.NewAdaptiveRateLimiter(cfg.Import.InterCallMin, cfg.Import.InterCallMax),
		maxRetries:   extractMaxRetries,
		keepProducts: extractKeepProducts,
		logger:       logger,
	}
	runErr := r.run(ctx)

	printSummary(cmd.OutOrStdout(), store)
	return runErr
}

type extractorSource interface {
	ForURL(rawURL string) (extractor.Extractor, bool)
}

// runner drains the pending URLs of a result store through a priority queue,
// one extraction at a time.
type runner struct {
	extractors   extractorSource
	store        *storage.ResultStorage
	limiter      *ratelimit.AdaptiveRateLimiter
	maxRetries   int
	keepProducts bool
	logger       *slog.Logger
}

func (r *runner) run(ctx context.Context) error {
	q := queue.NewInMemoryQueue()
	for _, u := range r.store.Pending() {
		if err := q.Push(queue.NewTask(u, 0)); err != nil {
			return err
		}
	}

	r.logger.Info("bulk extraction started", "pending", q.Size(), "total", r.store.Total())

	for {
		task, err := q.Pop(ctx)
		if errors.Is(err, queue.ErrQueueClosed) || errors.Is(err, queue.ErrQueueEmpty) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		if err := r.process(ctx, q, task); err != nil {
			return err
		}
	}
}

func (r *runner) process(ctx context.Context, q *queue.InMemoryQueue, task *queue.Task) error {
	if err := r.store.MarkProcessing(task.URL); err != nil {
		return err
	}

	ext, ok := r.extractors.ForURL(task.URL)
	if !ok {
		r.logger.Warn("unsupported supplier", "url", task.URL)
		return r.store.Fail(task.URL, extractor.ErrUnsupportedSupplier.Error())
	}

	result := ext.ScrapeProduct(ctx, task.URL)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if !result.Success {
		r.limiter.RecordError()
		if err := q.Retry(task, r.maxRetries); err == nil {
			r.logger.Warn("extraction failed, retrying", "url", task.URL, "attempt", task.Retries, "error", result.Error)
			return nil
		}
		r.logger.Error("extraction failed", "url", task.URL, "error", result.Error)
		return r.store.Complete(task.URL, result, false)
	}

	r.limiter.RecordSuccess()
	r.logger.Info("extracted", "url", task.URL, "title", result.Data.Title, "variants", len(result.Data.Variants))
	return r.store.Complete(task.URL, withoutHTML(result), r.keepProducts)
}

func withoutHTML(result *models.ExtractionResult) *models.ExtractionResult {
	cp := *result
	cp.RawHTML = ""
	return &cp
}

// collectURLs merges positional arguments with the lines of file. Blank
// lines and lines starting with # are skipped.
func collectURLs(args []string, file string) ([]string, error) {
	urls := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			urls = append(urls, a)
		}
	}

	if file == "" {
		return urls, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	fromFile, err := readURLs(f)
	if err != nil {
		return nil, err
	}
	return append(urls, fromFile...), nil
}

func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URLs: %w", err)
	}
	return urls, nil
}

func printSummary(w io.Writer, store *storage.ResultStorage) {
	stats := store.Stats()
	fmt.Fprintf(w, "\nTotal:      %d\n", store.Total())
	fmt.Fprintf(w, "Completed:  %d\n", stats[storage.StatusCompleted])
	fmt.Fprintf(w, "Failed:     %d\n", stats[storage.StatusFailed])
	fmt.Fprintf(w, "Pending:    %d\n", stats[storage.StatusPending]+stats[storage.StatusProcessing])
}
