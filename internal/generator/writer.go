package generator

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Export file names, matching the pipeline's default source paths.
const (
	CRMFile      = "crm_export.csv"
	PaymentsFile = "payments_export.csv"
	VerifiedFile = "verified_licenses.csv"
)

// WriteDataset writes the three exports into dir, creating it if needed.
func WriteDataset(ds Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := []struct {
		name string
		rows [][]string
	}{
		{CRMFile, ds.CRM},
		{PaymentsFile, ds.Payments},
		{VerifiedFile, ds.Verified},
	}
	for _, f := range files {
		if err := writeCSV(filepath.Join(dir, f.name), f.rows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
