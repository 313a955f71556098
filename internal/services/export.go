package services

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"kermittech/cv-screener/internal/models"
)

const (
	candidatesSheet = "Candidates"
	questionsSheet  = "Interview Questions"
)

var candidateColumns = append([]string{
	"Rank", "Document ID", "Name", "Degree", "University", "Last Title", "ATS Score",
}, append(chartLabels(models.AnalysisKeys), "Average Score", "Warnings")...)

func chartLabels(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = chartLabel(k)
	}
	return out
}

// ExportToExcel writes the batch summary workbook: candidates ranked by
// average score and their interview questions.
func ExportToExcel(records []*models.CandidateRecord, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	ranked := make([]*models.CandidateRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageScore > ranked[j].AverageScore
	})

	if err := f.SetSheetName("Sheet1", candidatesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(questionsSheet); err != nil {
		return fmt.Errorf("failed to create questions sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{strings.TrimPrefix(brandPrimary, "#")}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeCandidatesSheet(f, ranked, headerStyle); err != nil {
		return fmt.Errorf("failed to create candidates sheet: %w", err)
	}
	if err := writeQuestionsSheet(f, ranked, headerStyle); err != nil {
		return fmt.Errorf("failed to create questions sheet: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func writeCandidatesSheet(f *excelize.File, ranked []*models.CandidateRecord, headerStyle int) error {
	for i, title := range candidateColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(candidatesSheet, cell, title); err != nil {
			return err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(candidateColumns), 1)
	if err := f.SetCellStyle(candidatesSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, r := range ranked {
		row := []interface{}{
			i + 1, r.DocumentID, r.Name, r.Education.Degree, r.Education.University,
			r.Experience.LastTitle, r.Experience.ATSScore,
		}
		for _, v := range r.Analysis.Values() {
			row = append(row, v)
		}
		row = append(row, r.AverageScore, strings.Join(r.Warnings, "; "))

		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(candidatesSheet, start, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(candidatesSheet, "B", "B", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(candidatesSheet, "C", "F", 24); err != nil {
		return err
	}
	return f.SetPanes(candidatesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeQuestionsSheet(f *excelize.File, ranked []*models.CandidateRecord, headerStyle int) error {
	header := []interface{}{"Name", "#", "Question"}
	if err := f.SetSheetRow(questionsSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(questionsSheet, "A1", "C1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, r := range ranked {
		for i, q := range r.InterviewQuestions {
			values := []interface{}{r.Name, i + 1, q}
			if err := f.SetSheetRow(questionsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SetColWidth(questionsSheet, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(questionsSheet, "C", "C", 90)
}
