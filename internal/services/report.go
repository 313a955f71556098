package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"kermittech/cv-screener/internal/models"
)

const (
	brandPrimary = "#FF6B35"
	brandDark    = "#292929"
	brandAccent  = "#D90429"

	reportTitle   = "Kermit Tech Candidate Report"
	renderTimeout = 60 * time.Second
)

var errUnvalidatedRecord = errors.New("report requires a validated candidate record")

// CandidateReport is the input for one report section. Audio is optional.
type CandidateReport struct {
	Candidate *models.CandidateRecord
	Audio     *models.AudioRecord
}

type ReportRenderer interface {
	BuildHTML(reports []CandidateReport) (string, error)
	WriteCandidateReport(ctx context.Context, report CandidateReport) (string, error)
	WriteCombinedReport(ctx context.Context, reports []CandidateReport, filename string) (string, error)
}

type pdfPrinter func(ctx context.Context, htmlDoc string) ([]byte, error)

type chromiumReportRenderer struct {
	outputDir string
	md        goldmark.Markdown
	print     pdfPrinter
}

func NewReportRenderer(outputDir, chromePath string) ReportRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	return &chromiumReportRenderer{
		outputDir: outputDir,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		print:     chromiumPrinter(chromePath),
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ReportFilename returns "<document_id>_<Name_With_Underscores>_report.pdf".
func ReportFilename(documentID, name string) string {
	safe := strings.Join(strings.Fields(name), "_")
	safe = unsafeFilenameChars.ReplaceAllString(safe, "")
	if safe == "" {
		safe = "Candidate"
	}
	return fmt.Sprintf("%s_%s_report.pdf", documentID, safe)
}

func (r *chromiumReportRenderer) WriteCandidateReport(ctx context.Context, report CandidateReport) (string, error) {
	if report.Candidate == nil {
		return "", errUnvalidatedRecord
	}
	return r.WriteCombinedReport(ctx, []CandidateReport{report},
		ReportFilename(report.Candidate.DocumentID, report.Candidate.Name))
}

// WriteCombinedReport renders every report into one PDF, one candidate per
// page.
func (r *chromiumReportRenderer) WriteCombinedReport(ctx context.Context, reports []CandidateReport, filename string) (string, error) {
	htmlDoc, err := r.BuildHTML(reports)
	if err != nil {
		return "", err
	}

	pdf, err := r.print(ctx, htmlDoc)
	if err != nil {
		return "", fmt.Errorf("failed to print report: %w", err)
	}

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(r.outputDir, filename)
	if err := os.WriteFile(path, pdf, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (r *chromiumReportRenderer) BuildHTML(reports []CandidateReport) (string, error) {
	if len(reports) == 0 {
		return "", errors.New("no candidates to report")
	}

	var body strings.Builder
	for i, report := range reports {
		if report.Candidate == nil {
			return "", errUnvalidatedRecord
		}
		section, err := r.candidateSection(report)
		if err != nil {
			return "", err
		}
		class := "candidate"
		if i > 0 {
			class += " page-break"
		}
		fmt.Fprintf(&body, `<section class="%s">%s</section>`, class, section)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>" + reportTitle + "</title>" +
		"<style>" + reportCSS + "</style></head><body>" + body.String() + "</body></html>", nil
}

func (r *chromiumReportRenderer) candidateSection(report CandidateReport) (string, error) {
	c := report.Candidate

	var top bytes.Buffer
	if err := r.md.Convert([]byte(candidateOverviewMarkdown(c)), &top); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	var bottom bytes.Buffer
	if err := r.md.Convert([]byte(candidateDetailMarkdown(report)), &bottom); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<header><h1>%s</h1><div class="candidate-name">%s</div></header>`,
		reportTitle, html.EscapeString(c.Name))
	b.WriteString(top.String())
	b.WriteString(`<h2>Skills Analysis</h2><div class="chart">`)
	b.WriteString(RadarChartSVG(models.AnalysisKeys, c.Analysis.Values()))
	b.WriteString(`</div>`)
	fmt.Fprintf(&b, `<p class="average">Average Score: <strong>%.2f</strong> / 5</p>`, c.AverageScore)
	b.WriteString(bottom.String())
	return b.String(), nil
}

func candidateOverviewMarkdown(c *models.CandidateRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Professional Summary\n\n%s\n\n", mdEscape(c.Summary))
	fmt.Fprintf(&b, "## Education\n\n%s, %s\n\n", mdEscape(c.Education.Degree), mdEscape(c.Education.University))
	fmt.Fprintf(&b, "## Experience\n\n%s\n\nATS Score: **%s/100**\n\n",
		mdEscape(c.Experience.LastTitle), formatScore(c.Experience.ATSScore))
	return b.String()
}

func candidateDetailMarkdown(report CandidateReport) string {
	c := report.Candidate
	var b strings.Builder

	if len(c.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range c.Warnings {
			fmt.Fprintf(&b, "- %s\n", mdEscape(w))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Interview Questions\n\n| # | Question |\n|---|---|\n")
	for i, q := range c.InterviewQuestions {
		fmt.Fprintf(&b, "| %d | %s |\n", i+1, mdTableCell(q))
	}
	b.WriteString("\n")

	if a := report.Audio; a != nil {
		b.WriteString("## Interview Audio\n\n| Metric | Score |\n|---|---|\n")
		for i, v := range a.Analysis.Values() {
			fmt.Fprintf(&b, "| %s | %s |\n", chartLabel(models.AudioAnalysisKeys[i]), formatScore(v))
		}
		fmt.Fprintf(&b, "\n%s\n\n", mdEscape(a.Summary))
		if len(a.RedFlags) > 0 {
			b.WriteString("**Red flags**\n\n")
			for _, f := range a.RedFlags {
				fmt.Fprintf(&b, "- %s\n", mdEscape(f))
			}
			b.WriteString("\n")
		}
		for _, w := range a.Warnings {
			fmt.Fprintf(&b, "- %s\n", mdEscape(w))
		}
	}

	return b.String()
}

var mdSpecial = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "<", "&lt;", ">", "&gt;", "[", `\[`, "]", `\]`,
)

func mdEscape(s string) string {
	return mdSpecial.Replace(strings.TrimSpace(s))
}

func mdTableCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(mdEscape(s), "|", `\|`), "\n", " ")
}

const reportCSS = `html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
body{font-family:Helvetica,Arial,sans-serif;color:` + brandDark + `;margin:0;padding:0.6rem;}
header{border-bottom:4px solid ` + brandPrimary + `;margin-bottom:1rem;}
h1{color:` + brandPrimary + `;font-size:1.6rem;margin:0 0 0.3rem 0;}
h2{color:` + brandDark + `;border-left:4px solid ` + brandAccent + `;padding-left:0.5rem;font-size:1.1rem;}
.candidate-name{font-size:1.2rem;font-weight:700;margin-bottom:0.5rem;}
.chart{text-align:center;}
.average{font-size:1.1rem;}
.average strong{color:` + brandAccent + `;}
table{width:100%;border-collapse:collapse;font-size:0.85rem;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:` + brandPrimary + `;color:#fff;}
.page-break{break-before:page;page-break-before:always;}
@media print{@page{size:A4;margin:12mm;} body{padding:0;}}`

func chromiumPrinter(chromePath string) pdfPrinter {
	return func(ctx context.Context, htmlDoc string) ([]byte, error) {
		timeoutCtx, cancel := context.WithTimeout(ctx, renderTimeout)
		defer cancel()

		opts := []chromedp.ExecAllocatorOption{
			chromedp.NoSandbox,
			chromedp.DisableGPU,
			chromedp.Flag("disable-dev-shm-usage", true),
		}
		if chromePath != "" {
			opts = append(opts, chromedp.ExecPath(chromePath))
		}
		allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
		defer allocCancel()

		taskCtx, taskCancel := chromedp.NewContext(allocCtx)
		defer taskCancel()

		var pdf []byte
		dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
		if err := chromedp.Run(taskCtx,
			chromedp.Navigate(dataURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.ActionFunc(func(ctx context.Context) error {
				out, _, err := page.PrintToPDF().
					WithPrintBackground(true).
					WithPaperWidth(8.27).
					WithPaperHeight(11.69).
					WithMarginTop(0.5).
					WithMarginBottom(0.6).
					WithMarginLeft(0.45).
					WithMarginRight(0.45).
					Do(ctx)
				if err != nil {
					return err
				}
				pdf = out
				return nil
			}),
		); err != nil {
			return nil, err
		}
		return pdf, nil
	}
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
