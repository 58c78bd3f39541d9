package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

// Output formats, chosen by file extension.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// FormatFor returns the output format for path, or ErrInvalidRequest if the
// extension is not supported.
func FormatFor(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case FormatCSV, FormatJSON, FormatXLSX:
		return ext, nil
	default:
		return "", fmt.Errorf("%w: unsupported output extension %q (want .csv, .json or .xlsx)", ports.ErrInvalidRequest, filepath.Ext(path))
	}
}

// WriteTableFile writes table to path in the format implied by its extension,
// creating parent directories as needed.
func WriteTableFile(path string, table *domain.Table) (err error) {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(file)
	switch format {
	case FormatCSV:
		err = WriteCSV(w, table)
	case FormatJSON:
		err = WriteJSON(w, table)
	case FormatXLSX:
		err = WriteXLSX(w, table)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return w.Flush()
}
