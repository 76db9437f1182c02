package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hr-attendance-backend/internal/domain"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"ID", "Date", "Day", "Employee ID", "Employee", "Position", "Status", "Check In", "Check Out", "Location"}

func (h AttendanceHandler) export(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	in, err := listInputFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.Service.ExportAttendance(r.Context(), p, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filenameSuffix := time.Now().Format("20060102_150405")
	if in.StartDate != nil && in.EndDate != nil {
		filenameSuffix = fmt.Sprintf("%s_%s", in.StartDate.Format("20060102"), in.EndDate.Format("20060102"))
	} else if in.Date != nil {
		filenameSuffix = in.Date.Format("20060102")
	}

	switch format {
	case "csv":
		data, err := exportAttendanceCSV(items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"attendance_%s.csv\"", filenameSuffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportAttendanceXLSX(items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"attendance_%s.xlsx\"", filenameSuffix))
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
	}
}

func exportRow(a domain.AttendanceRecord) []string {
	var date, day, name, position string
	if a.CalendarDay != nil {
		date = a.CalendarDay.Date.Format(domain.DateLayout)
		day = a.CalendarDay.DayName
	}
	if a.Employee != nil {
		name = a.Employee.Name
		position = a.Employee.Position
	}
	return []string{
		strconv.FormatInt(a.ID, 10),
		date,
		day,
		strconv.FormatInt(a.EmployeeID, 10),
		name,
		position,
		string(a.Status),
		formatClock(a.CheckIn),
		formatClock(a.CheckOut),
		derefString(a.Location),
	}
}

func formatClock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04:05")
}

func exportAttendanceCSV(items []domain.AttendanceRecord) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(exportHeader)
	for _, a := range items {
		_ = w.Write(exportRow(a))
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportAttendanceXLSX(items []domain.AttendanceRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Attendance"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	_ = f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, a := range items {
		for c, v := range exportRow(a) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	widths := []float64{8, 12, 12, 12, 28, 18, 10, 10, 10, 28}
	for c, width := range widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sheet, col, col, width)
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "J1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
