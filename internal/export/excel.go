package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"recruit-console/internal/localstore"
	"recruit-console/internal/model"
)

const (
	JobSheet        = "Job"
	CandidatesSheet = "Candidates"
)

var candidateHeaders = []string{
	"Rank", "Name", "Email", "Phone", "Location", "Resume Score", "Screening Score",
	"Notice Period", "Current Compensation", "Expected Compensation", "Top Skills",
}

// Workbook builds the candidate report for one job. Candidates are ranked by
// resume score; the input slice is not modified.
func Workbook(job model.Job, cands []model.Candidate, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", JobSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(CandidatesSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	ranked := append([]model.Candidate(nil), cands...)
	model.SortByResumeScore(ranked)

	if err := writeJobSheet(f, job, ranked, now); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write job sheet: %w", err)
	}
	if err := writeCandidatesSheet(f, ranked); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write candidates sheet: %w", err)
	}
	return f, nil
}

// WriteFile renders the report and stores it at path, adding .xlsx when
// missing. It returns the final path.
func WriteFile(path string, job model.Job, cands []model.Candidate) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := Workbook(job, cands, time.Now())
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", fmt.Errorf("render workbook: %w", err)
	}
	if err := localstore.WriteBytes(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// DefaultFileName derives a report name from the job title.
func DefaultFileName(job model.Job) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(job.Title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = job.ID
	}
	return name + "-candidates.xlsx"
}

func writeJobSheet(f *excelize.File, job model.Job, ranked []model.Candidate, now time.Time) error {
	if err := f.SetColWidth(JobSheet, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(JobSheet, "B", "B", 60); err != nil {
		return err
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(JobSheet, "A1", job.Title); err != nil {
		return err
	}
	if err := f.MergeCell(JobSheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(JobSheet, "A1", "B1", titleStyle); err != nil {
		return err
	}

	screened := 0
	for _, c := range ranked {
		if c.Screened() {
			screened++
		}
	}
	rows := [][2]any{
		{"Job ID", job.ID},
		{"Created", job.CreatedAt},
		{"Total Candidates", job.TotalCandidates},
		{"Resume Screened", job.ResumeScreened},
		{"Phone Screened", job.PhoneScreened},
		{"Candidates Exported", len(ranked)},
		{"Screened In Export", screened},
		{"Generated", now.Format("2006-01-02 15:04:05")},
	}
	for i, r := range rows {
		row := i + 3
		label := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(JobSheet, label, r[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(JobSheet, label, label, labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(JobSheet, fmt.Sprintf("B%d", row), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeCandidatesSheet(f *excelize.File, ranked []model.Candidate) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	widths := []float64{6, 24, 28, 16, 18, 13, 15, 14, 20, 20, 40}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(CandidatesSheet, col, col, w); err != nil {
			return err
		}
	}

	for i, h := range candidateHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(CandidatesSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(CandidatesSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, c := range ranked {
		var screening any = ""
		if c.ScreeningScore != nil {
			screening = round1(*c.ScreeningScore)
		}
		skills := model.TopSkills(c.Skills, 3)
		labels := make([]string, len(skills))
		for j, s := range skills {
			labels[j] = s.String()
		}
		values := []any{
			i + 1, c.Name, c.Email, c.Phone, c.Location, round1(c.ResumeScore), screening,
			c.NoticePeriod, c.CurrentCompensation, c.ExpectedCompensation, strings.Join(labels, ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(CandidatesSheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SetPanes(CandidatesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
