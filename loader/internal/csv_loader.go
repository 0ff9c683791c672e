package internal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"datarag/types"
)

// CSVLoader reads a dataset snapshot from a CSV file. The first record is
// the header; every following record becomes one Row with fields in header
// order.
type CSVLoader struct{}

func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

func (l *CSVLoader) Load(path string) ([]types.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("snapshot %s has no data rows", path)
	}

	header := records[0]
	rows := make([]types.Row, 0, len(records)-1)
	for i, record := range records[1:] {
		fields := make([]types.Field, len(record))
		for j, value := range record {
			name := fmt.Sprintf("col%d", j)
			if j < len(header) {
				name = header[j]
			}
			fields[j] = types.Field{Name: name, Value: value}
		}
		rows = append(rows, types.Row{Ordinal: i, Fields: fields})
	}
	return rows, nil
}

// SourceID derives a stable dataset identifier from the snapshot filename.
func SourceID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
