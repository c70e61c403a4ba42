package taxonomy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/ramanid/core"
)

// Column names of the taxonomy table.
const (
	ColumnMineralName       = "Mineral Name"
	ColumnHeyClassification = "Hey Classification Name"
)

var extraColumns = []string{
	core.ClassIMANumber,
	core.ClassRRUFFID,
	core.ClassStructuralGroup,
	core.ClassCrystalSystem,
	core.ClassSpaceGroups,
	core.ClassOldestAge,
	core.ClassParagenesis,
	core.ClassElements,
}

// ReadCSV parses a taxonomy table with a header row. The mineral name and
// Hey classification columns are required; known extra columns are copied
// when present. Rows missing either required value are skipped.
func ReadCSV(r io.Reader) ([]core.ClassificationRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnMineralName)
		}
		return nil, fmt.Errorf("reading taxonomy header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}
	nameCol, ok := columns[ColumnMineralName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnMineralName)
	}
	heyCol, ok := columns[ColumnHeyClassification]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnHeyClassification)
	}

	var records []core.ClassificationRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading taxonomy row: %w", err)
		}
		name, hey := field(row, nameCol), field(row, heyCol)
		if name == "" || hey == "" {
			continue
		}
		rec := core.ClassificationRecord{Name: name, HeyClassification: hey}
		for _, col := range extraColumns {
			idx, present := columns[col]
			if !present {
				continue
			}
			if v := field(row, idx); v != "" {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[col] = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
