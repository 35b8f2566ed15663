package grade

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Оцінки"

var reportHeader = []string{
	"Предмет", "Викладач", "Контроль",
	"Лабораторні", "Макс. лаб.", "Модулі", "Макс. мод.",
	"Разом", "Макс.", "%",
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// WriteXLSX writes lines as a spreadsheet with one row per subject, under a title row naming the semester.
func WriteXLSX(w io.Writer, semesterLabel string, lines []Line) error {
	f := excelize.NewFile()
	defer f.Close()

	idx := f.NewSheet(reportSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	lastCol, _ := excelize.ColumnNumberToName(len(reportHeader))
	_ = f.SetColWidth(reportSheet, "A", "A", 28)
	_ = f.SetColWidth(reportSheet, "B", "C", 18)
	_ = f.SetColWidth(reportSheet, "D", lastCol, 12)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	// title
	_ = f.SetCellValue(reportSheet, cell(1, 1), fmt.Sprintf("Семестр %s", semesterLabel))
	_ = f.MergeCell(reportSheet, cell(1, 1), cell(len(reportHeader), 1))
	_ = f.SetCellStyle(reportSheet, cell(1, 1), cell(1, 1), headerStyle)

	// header
	for i, h := range reportHeader {
		_ = f.SetCellValue(reportSheet, cell(i+1, 2), h)
	}
	_ = f.SetCellStyle(reportSheet, cell(1, 2), cell(len(reportHeader), 2), headerStyle)

	// rows
	for i, ln := range lines {
		row := i + 3
		values := []interface{}{
			ln.Title, ln.Teacher, ln.ControlType,
			ln.Labs.Obtained, ln.Labs.Max, ln.Modules.Obtained, ln.Modules.Max,
			ln.Total.Obtained, ln.Total.Max, ln.Total.Percent,
		}
		for col, v := range values {
			if err := f.SetCellValue(reportSheet, cell(col+1, row), v); err != nil {
				return errors.Wrap(err, "writing report row")
			}
		}
	}

	return errors.Wrap(f.Write(w), "writing report")
}
