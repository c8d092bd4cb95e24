package export

import (
	"fmt"
	"log/slog"

	"github.com/gocarina/gocsv"
)

// WriteServicesCSV renders the services as a single CSV file
func (e *Exporter) WriteServicesCSV(snapshot *Snapshot) ([]byte, error) {
	paths := categoryPaths(snapshot.Categories)

	rows := make([]ServiceRow, 0, len(snapshot.Services))
	for _, svc := range snapshot.Services {
		rows = append(rows, serviceRow(svc, paths))
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		e.countJob("csv", "failed")
		return nil, fmt.Errorf("failed to marshal services: %w", err)
	}

	e.countJob("csv", "completed")
	e.logger.Info("csv export finished", slog.Int("services", len(rows)))
	return []byte(out), nil
}

// WriteMaterialsCSV renders the materials as a single CSV file
func (e *Exporter) WriteMaterialsCSV(snapshot *Snapshot) ([]byte, error) {
	paths := categoryPaths(snapshot.Categories)

	rows := make([]MaterialRow, 0, len(snapshot.Materials))
	for _, mat := range snapshot.Materials {
		rows = append(rows, materialRow(mat, paths))
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		e.countJob("csv", "failed")
		return nil, fmt.Errorf("failed to marshal materials: %w", err)
	}

	e.countJob("csv", "completed")
	return []byte(out), nil
}
