// Package export renders calendar views as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"salonbook/backend/internal/service/calendar"
)

const (
	SheetAppointments = "Appointments"
	SheetAvailability = "Availability"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	appointmentHeaders  = []string{"Date", "Start", "End", "Status", "Service", "Duration (min)", "Client"}
	availabilityHeaders = []string{"Date", "Start", "End"}
)

// WriteWeek writes the week as an xlsx workbook with one sheet of
// appointments and one of availability windows.
func WriteWeek(w io.Writer, week calendar.Week) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAppointments); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetAvailability); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := writeRow(f, SheetAppointments, 1, toAny(appointmentHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, SheetAvailability, 1, toAny(availabilityHeaders)); err != nil {
		return err
	}
	_ = f.SetCellStyle(SheetAppointments, "A1", "G1", headerStyle)
	_ = f.SetCellStyle(SheetAvailability, "A1", "C1", headerStyle)

	apptRow, windowRow := 2, 2
	for _, day := range week.Days {
		for _, e := range day.Entries {
			row := []any{
				e.Date.String(), e.Start.String(), e.End.String(), string(e.Status),
				e.Service.Name, e.Service.Duration, e.Client.Name,
			}
			if err := writeRow(f, SheetAppointments, apptRow, row); err != nil {
				return err
			}
			apptRow++
		}
		for _, win := range day.Windows {
			row := []any{day.Date.String(), win.Start.String(), win.End.String()}
			if err := writeRow(f, SheetAvailability, windowRow, row); err != nil {
				return err
			}
			windowRow++
		}
	}

	_ = f.SetColWidth(SheetAppointments, "A", "G", 16)
	_ = f.SetColWidth(SheetAvailability, "A", "C", 12)

	_, err = f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
