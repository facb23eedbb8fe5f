package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/codermrx/relaybot/internal/models"
)

const (
	exportSheet      = "Users"
	exportTimeLayout = "2006-01-02 15:04:05"
)

var exportHeaders = []string{
	"ID", "First name", "Last name", "Username", "Phone",
	"Joined", "Last active", "Messages", "Admin",
}

// ExportFileName names an export generated at now
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("users_%s.xlsx", now.Format("20060102_150405"))
}

// ExportUsers renders every user, in ascending id order, as an xlsx workbook
func ExportUsers(dir *models.Directory) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, id := range dir.SortedUserIDs() {
		u := dir.Users[id]
		username := ""
		if u.Username != "" {
			username = "@" + u.Username
		}
		admin := "no"
		if dir.IsAdmin(id) {
			admin = "yes"
		}

		row := []interface{}{
			u.ID, u.FirstName, u.LastName, username, u.Phone,
			formatExportTime(u.JoinedAt), formatExportTime(u.LastActiveAt),
			u.MessageCount, admin,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write user %d: %w", id, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatExportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(exportTimeLayout)
}
