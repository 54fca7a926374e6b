package attendance

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Summary"
	activitySheet   = "Activity"
	dailyHoursSheet = "Daily Hours"
)

// Export implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Export(ctx context.Context, q attendance.StatsQuery, w io.Writer) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}

	records, err := s.records(ctx)
	if err != nil {
		return "", err
	}

	filtered := s.aggregator.FilterForIdentityAndPeriod(records, q.Email, q.Period)
	stats := s.aggregator.ComputeStats(filtered)
	daily := s.aggregator.DailyHours(filtered, 0)

	f := excelize.NewFile()
	defer f.Close()

	if err := writeWorkbook(f, q, stats, daily); err != nil {
		return "", fmt.Errorf("failed to build workbook: %w", err)
	}
	if err := f.Write(w); err != nil {
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}

	return exportFilename(q), nil
}

func exportFilename(q attendance.StatsQuery) string {
	local, _, _ := strings.Cut(attendance.NormalizeIdentity(q.Email), "@")
	return fmt.Sprintf("attendance_%s_%04d-%02d.xlsx", local, q.Period.Year, q.Period.Month+1)
}

func writeWorkbook(f *excelize.File, q attendance.StatsQuery, stats attendance.Stats, daily []attendance.DailyHours) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#00A8D6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	// Summary reuses the default sheet
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	summary := [][]any{
		{"Metric", "Value"},
		{"Email", q.Email},
		{"Period", q.Period.String()},
		{"Days Present", stats.DaysPresent},
		{"Total Hours", stats.TotalHours},
		{"Attendance Rate (%)", stats.AttendanceRate},
		{"Working Days", attendance.WorkingDaysPerMonth},
	}
	if err := writeRows(f, summarySheet, summary, headerStyle); err != nil {
		return err
	}

	activity := [][]any{{"Date", "Time", "Action"}}
	for _, ev := range stats.RecentActivity {
		activity = append(activity, []any{ev.Date, ev.Time, string(ev.Action)})
	}
	if _, err := f.NewSheet(activitySheet); err != nil {
		return err
	}
	if err := writeRows(f, activitySheet, activity, headerStyle); err != nil {
		return err
	}

	hours := [][]any{{"Date", "Hours"}}
	for _, d := range daily {
		hours = append(hours, []any{d.Date, d.Hours})
	}
	if _, err := f.NewSheet(dailyHoursSheet); err != nil {
		return err
	}
	if err := writeRows(f, dailyHoursSheet, hours, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return nil
}

// writeRows writes rows from A1 and styles the first one as a header.
func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 20)
}
