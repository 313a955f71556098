package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kermittech/cv-screener/internal/config"
	"kermittech/cv-screener/internal/logger"
	"kermittech/cv-screener/internal/models"
	"kermittech/cv-screener/internal/services"
)

// audioPairs collects repeated -audio cv.pdf=interview.mp3 flags.
type audioPairs map[string]string

func (a audioPairs) String() string { return fmt.Sprint(map[string]string(a)) }

func (a audioPairs) Set(v string) error {
	cv, audio, ok := strings.Cut(v, "=")
	if !ok || cv == "" || audio == "" {
		return fmt.Errorf("expected <cv file>=<audio file>, got %q", v)
	}
	a[filepath.Clean(cv)] = audio
	return nil
}

func main() {
	audio := audioPairs{}
	category := flag.String("category", "", "job category: "+strings.Join(services.JobCategories, ", "))
	outDir := flag.String("out", "./reports", "directory for reports and the summary workbook")
	combined := flag.Bool("combined", true, "also write one PDF with every candidate")
	noPDF := flag.Bool("no-pdf", false, "skip PDF reports")
	flag.Var(audio, "audio", "pair a CV with interview audio as <cv file>=<audio file> (repeatable)")
	flag.Parse()

	if !services.IsValidJobCategory(*category) {
		fmt.Fprintf(os.Stderr, "-category must be one of: %s\n", strings.Join(services.JobCategories, ", "))
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: screen -category <category> [-audio cv=audio] <cv files...>")
		os.Exit(2)
	}

	cfg := config.Load()
	cfg.Storage.ReportPath = *outDir
	if *noPDF {
		cfg.Report.Enabled = false
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *category, flag.Args(), audio, *combined); err != nil {
		log.Error("❌ Batch failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, category string, files []string, audio audioPairs, combined bool) error {
	rt, err := services.NewRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	items := make([]services.BatchItem, 0, len(files))
	for _, path := range files {
		item := services.BatchItem{
			DocumentID: uuid.NewString(),
			Filename:   filepath.Base(path),
			Path:       path,
		}
		if audioPath, ok := audio[filepath.Clean(path)]; ok {
			item.Audio = &services.AudioInput{
				DocumentID: uuid.NewString(),
				Path:       audioPath,
				MimeType:   services.MimeTypeFor(audioPath),
			}
		}
		items = append(items, item)
	}

	runner := services.NewBatchRunner(rt.Screener, cfg.Worker.Concurrency, log)
	result, runErr := runner.Run(ctx, category, items)

	for _, f := range result.Failures {
		fmt.Fprintf(os.Stderr, "✗ %s\n", f.Message)
	}
	if errors.Is(runErr, services.ErrBatchAborted) {
		return runErr
	}

	candidates := result.Candidates()
	if len(candidates) == 0 {
		return errors.New("no CV could be screened")
	}

	if err := os.MkdirAll(cfg.Storage.ReportPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := filepath.Join(cfg.Storage.ReportPath, "screening_summary.xlsx")
	if err := services.ExportToExcel(candidates, summary); err != nil {
		return err
	}
	log.Info("📊 Summary written", zap.String("path", summary))

	if rt.Reports != nil {
		writeReports(ctx, rt.Reports, result, candidates, combined, log)
	}

	for i, c := range candidates {
		fmt.Printf("%2d. %-30s %.2f\n", i+1, c.Name, c.AverageScore)
	}
	return nil
}

// writeReports renders one PDF per candidate and, when asked, a combined
// PDF in ranking order. Report failures never fail the batch.
func writeReports(ctx context.Context, reports services.ReportRenderer, result *services.BatchResult, ranked []*models.CandidateRecord, combined bool, log *zap.Logger) {
	all := make([]services.CandidateReport, 0, len(ranked))
	for _, c := range ranked {
		report := services.CandidateReport{Candidate: c}
		if entry, ok := result.Entries[c.DocumentID]; ok {
			report.Audio = entry.Audio
		}
		all = append(all, report)

		path, err := reports.WriteCandidateReport(ctx, report)
		if err != nil {
			log.Warn("⚠️ Report generation failed",
				zap.String("document_id", c.DocumentID),
				zap.String("stage", services.StageReport),
				zap.Error(err),
			)
			continue
		}
		log.Info("📄 Report written", zap.String("path", path))
	}

	if !combined || len(all) < 2 {
		return
	}
	path, err := reports.WriteCombinedReport(ctx, all, "combined_candidate_reports.pdf")
	if err != nil {
		log.Warn("⚠️ Combined report failed", zap.Error(err))
		return
	}
	log.Info("📄 Combined report written", zap.String("path", path))
}
