package export

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

var serviceHeaders = []any{
	"Name", "Description", "Code", "Unit", "Hours", "Price", "Taxable", "Active",
	"Category 1", "Category 2", "Category 3", "Category 4", "Category 5",
}

var materialHeaders = []any{
	"Name", "Code", "Unit", "Cost", "Taxable", "Active",
	"Category 1", "Category 2", "Category 3", "Category 4", "Category 5",
}

var equipmentHeaders = []any{
	"Name", "Code", "Cost", "Price", "Active",
}

// WriteXLSX renders the snapshot as a workbook with one sheet per catalog
// kind
func (e *Exporter) WriteXLSX(snapshot *Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	paths := categoryPaths(snapshot.Categories)

	if err := writeServicesSheet(f, snapshot, paths); err != nil {
		e.countJob("xlsx", "failed")
		return nil, err
	}
	if err := writeMaterialsSheet(f, snapshot, paths); err != nil {
		e.countJob("xlsx", "failed")
		return nil, err
	}
	if err := writeEquipmentSheet(f, snapshot); err != nil {
		e.countJob("xlsx", "failed")
		return nil, err
	}

	// The default sheet is replaced by our own
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		e.countJob("xlsx", "failed")
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.countJob("xlsx", "completed")
	e.logger.Info("xlsx export finished",
		slog.Int("services", len(snapshot.Services)),
		slog.Int("materials", len(snapshot.Materials)),
		slog.Int("equipment", len(snapshot.Equipment)),
	)
	return buf.Bytes(), nil
}

func writeServicesSheet(f *excelize.File, snapshot *Snapshot, paths map[uuid.UUID][]string) error {
	const sheet = "Services"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A1", &serviceHeaders); err != nil {
		return err
	}
	for i, svc := range snapshot.Services {
		row := serviceRow(svc, paths)
		cells := []any{
			row.Name, row.Description, row.Code, row.Unit, row.Hours, row.Price,
			row.Taxable, row.Active,
			row.Category1, row.Category2, row.Category3, row.Category4, row.Category5,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write service row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeMaterialsSheet(f *excelize.File, snapshot *Snapshot, paths map[uuid.UUID][]string) error {
	const sheet = "Materials"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A1", &materialHeaders); err != nil {
		return err
	}
	for i, mat := range snapshot.Materials {
		row := materialRow(mat, paths)
		cells := []any{
			row.Name, row.Code, row.Unit, row.Cost, row.Taxable, row.Active,
			row.Category1, row.Category2, row.Category3, row.Category4, row.Category5,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write material row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeEquipmentSheet(f *excelize.File, snapshot *Snapshot) error {
	const sheet = "Equipment"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	if err := f.SetSheetRow(sheet, "A1", &equipmentHeaders); err != nil {
		return err
	}
	for i, eq := range snapshot.Equipment {
		cells := []any{
			eq.Name, eq.Code, eq.Cost.StringFixed(2), eq.Price.StringFixed(2), boolCell(eq.Active),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write equipment row %d: %w", i+2, err)
		}
	}
	return nil
}
