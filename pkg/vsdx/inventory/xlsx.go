package inventory

import (
	"io"
	"strconv"
	"strings"

	"github.com/ukaji3/vsdx-go/pkg/vsdx/models"
	"github.com/xuri/excelize/v2"
)

// ConnectsSheet is the name of the workbook sheet listing connection rows.
const ConnectsSheet = "Connects"

const maxSheetName = 31

var shapeHeader = []any{"id", "parent_id", "text", "kind", "master", "l", "t", "w", "h"}

var connectHeader = []any{"page", "from_id", "from_cell", "to_id", "to_cell"}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// WriteXLSX writes data as a workbook to path: one sheet of shape rows per
// page plus a "Connects" sheet.
func WriteXLSX(data *models.DiagramData, path string) error {
	f, err := buildWorkbook(data)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// WriteXLSXTo is WriteXLSX for an arbitrary writer.
func WriteXLSXTo(data *models.DiagramData, w io.Writer) error {
	f, err := buildWorkbook(data)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func buildWorkbook(data *models.DiagramData) (*excelize.File, error) {
	f := excelize.NewFile()
	used := map[string]bool{strings.ToLower(ConnectsSheet): true}

	first := true
	for _, page := range data.Pages {
		sheet := sheetName(page.Name, used)
		if first {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				f.Close()
				return nil, NewExportError(page.Name, "xlsx", err)
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, NewExportError(page.Name, "xlsx", err)
		}
		if err := writeShapeRows(f, sheet, page.Shapes); err != nil {
			f.Close()
			return nil, NewExportError(page.Name, "xlsx", err)
		}
	}

	if first {
		if err := f.SetSheetName(f.GetSheetName(0), ConnectsSheet); err != nil {
			f.Close()
			return nil, NewExportError("", "xlsx", err)
		}
	} else if _, err := f.NewSheet(ConnectsSheet); err != nil {
		f.Close()
		return nil, NewExportError("", "xlsx", err)
	}
	if err := writeConnectRows(f, data.Pages); err != nil {
		f.Close()
		return nil, NewExportError("", "xlsx", err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeShapeRows(f *excelize.File, sheet string, shapes []models.ShapeData) error {
	if err := f.SetSheetRow(sheet, "A1", &shapeHeader); err != nil {
		return err
	}
	for i, s := range shapes {
		row := []any{s.ID, optional(s.ParentID), s.Text, s.Kind, s.Master, s.L, s.T, optional(s.W), optional(s.H)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeConnectRows(f *excelize.File, pages []models.PageData) error {
	if err := f.SetSheetRow(ConnectsSheet, "A1", &connectHeader); err != nil {
		return err
	}
	r := 2
	for _, page := range pages {
		for _, c := range page.Connects {
			row := []any{page.Name, c.FromID, c.FromCell, c.ToID, c.ToCell}
			cell, err := excelize.CoordinatesToCellName(1, r)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(ConnectsSheet, cell, &row); err != nil {
				return err
			}
			r++
		}
	}
	return nil
}

func optional(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// sheetName derives a valid, unused sheet name from a page name. Sheet names
// are compared case-insensitively.
func sheetName(page string, used map[string]bool) string {
	base := strings.Trim(sheetNameReplacer.Replace(page), "'")
	if base == "" {
		base = "Page"
	}
	name := truncate(base, maxSheetName)
	for n := 1; used[strings.ToLower(name)]; n++ {
		suffix := "-" + strconv.Itoa(n)
		name = truncate(base, maxSheetName-len([]rune(suffix))) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
