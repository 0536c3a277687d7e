// Package export renders reservation listings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"okhouse/internal/models"
	"okhouse/internal/reservation"

	"github.com/xuri/excelize/v2"
)

const sheetName = "예약현황"

var headers = []string{"번호", "예약자", "전화번호", "기간", "박수", "상태", "처리자"}

var statusFills = map[models.Status]string{
	models.StatusConfirmed: "#C6EFCE",
	models.StatusPending:   "#FFEB9C",
	models.StatusCancelled: "#FFC7CE",
}

// WriteMonthlyReport writes the reservations of year/month as an xlsx
// workbook to w. Rows are ordered by start date.
func WriteMonthlyReport(w io.Writer, year int, month time.Month, reservations []models.Reservation) error {
	f, err := buildReport(year, month, reservations)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// SaveMonthlyReport writes the report into dir and returns the file path.
func SaveMonthlyReport(dir string, year int, month time.Month, reservations []models.Reservation) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f, err := buildReport(year, month, reservations)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, fmt.Sprintf("reservations_%04d_%02d.xlsx", year, int(month)))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

func buildReport(year int, month time.Month, reservations []models.Reservation) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("기간: %04d년 %02d월", year, int(month)))
	if title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "A1", title)
	}

	header, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, header)
	}

	rows := append([]models.Reservation(nil), reservations...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StartDate.Before(rows[j].StartDate.Time)
	})

	styles := map[models.Status]int{}
	for status, color := range statusFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("status style: %w", err)
		}
		styles[status] = style
	}

	for i, r := range rows {
		row := i + 3
		decidedBy := ""
		if r.ConfirmedBy != nil {
			decidedBy = *r.ConfirmedBy
		}
		values := []any{r.ID, r.Name, reservation.FormatPhone(r.Phone), reservation.FormatPeriod(r), r.Duration, r.Status.Text(), decidedBy}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		if style, ok := styles[r.Status]; ok {
			cell, _ := excelize.CoordinatesToCellName(6, row)
			_ = f.SetCellStyle(sheetName, cell, cell, style)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "C", 16)
	_ = f.SetColWidth(sheetName, "D", "D", 40)
	_ = f.SetColWidth(sheetName, "E", "G", 12)
	return f, nil
}
