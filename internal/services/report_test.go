package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kermittech/cv-screener/internal/models"
)

func testRenderer(t *testing.T, print pdfPrinter) (*chromiumReportRenderer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "reports")
	r := NewReportRenderer(dir, "/nonexistent/chrome").(*chromiumReportRenderer)
	r.print = print
	return r, dir
}

func sampleCandidate() *models.CandidateRecord {
	return &models.CandidateRecord{
		DocumentID:         "doc-1",
		Name:               "Jane Roe",
		Education:          models.Education{Degree: "BSc", University: "X"},
		Experience:         models.Experience{LastTitle: "Analyst", ATSScore: 70},
		Analysis:           models.Analysis{TechnicalExperience: 4, ProjectRelevance: 3, ExtraCurricular: 2, BusinessAcumen: 3, Communication: 4, Leadership: 3, Innovative: 4, CulturalFit: 5},
		Summary:            "Detail-oriented analyst.",
		InterviewQuestions: []string{"Walk me through a dashboard | you built."},
		AverageScore:       3.5,
	}
}

func TestReportFilename(t *testing.T) {
	assert.Equal(t, "doc-1_Jane_Roe_report.pdf", ReportFilename("doc-1", "Jane Roe"))
	assert.Equal(t, "doc-1_Jane_ORoe_report.pdf", ReportFilename("doc-1", "  Jane  O'Roe "))
	assert.Equal(t, "doc-1_Candidate_report.pdf", ReportFilename("doc-1", ""))
}

func TestBuildHTML(t *testing.T) {
	r, _ := testRenderer(t, nil)

	audio := &models.AudioRecord{
		Analysis: models.AudioAnalysis{CommunicationScore: 4, TechnicalDepth: 3, Confidence: 5, KeywordUsage: 2},
		RedFlags: []string{"Vague on testing"},
		Summary:  "Clear.",
	}
	doc, err := r.BuildHTML([]CandidateReport{{Candidate: sampleCandidate(), Audio: audio}})
	require.NoError(t, err)

	assert.Contains(t, doc, reportTitle)
	assert.Contains(t, doc, "Jane Roe")
	assert.Contains(t, doc, "<svg")
	assert.Contains(t, doc, "<table>")
	assert.Contains(t, doc, "Walk me through a dashboard | you built.")
	assert.Contains(t, doc, "Average Score: <strong>3.50</strong>")
	assert.Contains(t, doc, "Keyword Usage")
	assert.Contains(t, doc, "Vague on testing")
	assert.NotContains(t, doc, `class="candidate page-break"`)
}

func TestBuildHTML_OnePagePerCandidate(t *testing.T) {
	r, _ := testRenderer(t, nil)

	second := sampleCandidate()
	second.Name = "John Doe"
	doc, err := r.BuildHTML([]CandidateReport{{Candidate: sampleCandidate()}, {Candidate: second}})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(doc, `<section class="candidate`))
	assert.Equal(t, 1, strings.Count(doc, `class="candidate page-break"`))
}

func TestBuildHTML_RequiresValidatedRecord(t *testing.T) {
	r, _ := testRenderer(t, nil)

	_, err := r.BuildHTML([]CandidateReport{{Candidate: nil}})
	assert.ErrorIs(t, err, errUnvalidatedRecord)

	_, err = r.BuildHTML(nil)
	assert.Error(t, err)
}

func TestWriteCandidateReport(t *testing.T) {
	var printed string
	r, dir := testRenderer(t, func(_ context.Context, htmlDoc string) ([]byte, error) {
		printed = htmlDoc
		return []byte("%PDF-fake"), nil
	})

	path, err := r.WriteCandidateReport(context.Background(), CandidateReport{Candidate: sampleCandidate()})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "doc-1_Jane_Roe_report.pdf"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(data))
	assert.Contains(t, printed, "Jane Roe")

	_, err = r.WriteCandidateReport(context.Background(), CandidateReport{})
	assert.ErrorIs(t, err, errUnvalidatedRecord)
}

func TestWriteCombinedReport_PrintFailure(t *testing.T) {
	r, dir := testRenderer(t, func(context.Context, string) ([]byte, error) {
		return nil, errors.New("chrome not found")
	})

	_, err := r.WriteCombinedReport(context.Background(), []CandidateReport{{Candidate: sampleCandidate()}}, "combined.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not found")
	assert.NoFileExists(t, filepath.Join(dir, "combined.pdf"))
}
