package report

import (
	"context"
	"strings"
	"time"

	"byov-backend/internal/features/enrollment"

	"github.com/xuri/excelize/v2"
)

var rosterColumns = []string{
	"Tech ID", "Full Name", "District", "State", "Vehicle",
	"Approved", "Synced At", "Dashboard ID", "Failed Uploads",
}

type ReportService interface {
	ExportRoster(ctx context.Context) ([]byte, string, error)
}

type ReportServiceImpl struct {
	EnrollRepo enrollment.EnrollmentRepository
}

func NewReportService(enrollRepo enrollment.EnrollmentRepository) ReportService {
	return &ReportServiceImpl{
		EnrollRepo: enrollRepo,
	}
}

// ExportRoster renders every enrollment with its sync state into an xlsx
// workbook and returns the bytes plus a dated filename.
func (s *ReportServiceImpl) ExportRoster(ctx context.Context) ([]byte, string, error) {
	recs, err := s.EnrollRepo.List(ctx, nil, 0)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Enrollments"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range rosterColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, rec := range recs {
		row := rosterRow(&rec)
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range rosterColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := "byov-roster-" + time.Now().Format("2006-01-02") + ".xlsx"
	return buffer.Bytes(), filename, nil
}

func rosterRow(rec *enrollment.Enrollment) []interface{} {
	vehicle := strings.TrimSpace(strings.Join([]string{rec.Year, rec.Make, rec.Model}, " "))

	syncedAt := ""
	if rec.SyncedAt != nil {
		syncedAt = rec.SyncedAt.Format("2006-01-02 15:04:05")
	}

	return []interface{}{
		rec.TechID,
		rec.FullName,
		rec.District,
		rec.State,
		vehicle,
		rec.Approved,
		syncedAt,
		rec.DashboardTechID,
		rec.FailedUploadCount,
	}
}
