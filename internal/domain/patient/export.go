package patient

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "ผู้ป่วย"

var exportHeader = []string{
	"รหัสผู้ป่วย",
	"ชื่อผู้ใช้",
	"เลขบัตรประชาชน",
	"ชื่อ",
	"นามสกุล",
	"เพศ",
	"วันเกิด",
	"เบอร์โทร",
	"สถานะ",
	"ทำกายภาพบำบัด",
	"วันที่สร้าง",
}

var exportWidths = []float64{14, 18, 18, 18, 18, 8, 12, 14, 14, 14, 18}

// WriteXLSX renders patients as a single-sheet workbook.
func WriteXLSX(patients []*Patient) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	for i, w := range exportWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(exportSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	for i, p := range patients {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := exportRow(p)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func exportRow(p *Patient) []interface{} {
	birthday := ""
	if p.Birthday != nil {
		birthday = p.Birthday.Format("2006-01-02")
	}
	therapy := "ไม่ใช่"
	if p.PhysicalTherapy {
		therapy = "ใช่"
	}
	return []interface{}{
		p.IDPatient,
		p.Username,
		p.IDCardNumber,
		p.Name,
		p.Surname,
		p.Gender,
		birthday,
		p.Tel,
		p.UserStatus,
		therapy,
		p.CreatedAt.Format("2006-01-02 15:04"),
	}
}
