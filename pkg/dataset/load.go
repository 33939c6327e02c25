package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrAllRowsDropped is returned when listwise deletion removes every row.
var ErrAllRowsDropped = errors.New("listwise deletion dropped every row")

// ErrAllMissingColumn is returned when one or more columns contain no
// observed values at all. Listwise deletion would silently empty the dataset,
// so the offending items are reported instead.
var ErrAllMissingColumn = errors.New("column contains only missing values")

// LoadReport summarises what the loader did to the raw table.
type LoadReport struct {
	RowsRead          int
	RowsKept          int
	RowsDropped       int
	Columns           int
	ZeroVarianceItems []string
}

// missing reports whether a CSV cell encodes a missing observation.
func missing(cell string) bool {
	switch strings.ToUpper(strings.TrimSpace(cell)) {
	case "", "NA", "N/A", "NAN", "NULL":
		return true
	}
	return false
}

// Load reads a respondent-by-item CSV table with a header row of item names
// and applies listwise deletion: any row with a missing cell is dropped.
// Group labels are assigned from the five-factor catalog where item names
// match; unmatched items keep an empty group.
func Load(r io.Reader) (*Dataset, *LoadReport, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	items := make([]string, len(header))
	for i, h := range header {
		items[i] = strings.TrimSpace(h)
	}
	p := len(items)

	var (
		kept         []float64
		rowsRead     int
		rowsDropped  int
		missingByCol = make([]int, p)
	)

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading row at line %d: %w", line, err)
		}
		if len(record) != p {
			return nil, nil, fmt.Errorf("line %d: expected %d cells, got %d", line, p, len(record))
		}
		rowsRead++

		row := make([]float64, p)
		drop := false
		for j, cell := range record {
			if missing(cell) {
				missingByCol[j]++
				drop = true
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d, item %q: unparsable value %q", line, items[j], cell)
			}
			row[j] = v
		}
		if drop {
			rowsDropped++
			continue
		}
		kept = append(kept, row...)
	}

	// An all-missing column means listwise deletion is the wrong diagnosis:
	// report the items rather than returning an empty dataset.
	var dead []string
	for j, count := range missingByCol {
		if rowsRead > 0 && count == rowsRead {
			dead = append(dead, items[j])
		}
	}
	if len(dead) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrAllMissingColumn, strings.Join(dead, ", "))
	}

	rowsKept := len(kept) / p
	if rowsKept == 0 {
		return nil, nil, fmt.Errorf("%w (%d rows read)", ErrAllRowsDropped, rowsRead)
	}

	ds, err := New(mat.NewDense(rowsKept, p, kept), items, FiveFactorGroups(items))
	if err != nil {
		return nil, nil, err
	}

	report := &LoadReport{
		RowsRead:          rowsRead,
		RowsKept:          rowsKept,
		RowsDropped:       rowsDropped,
		Columns:           p,
		ZeroVarianceItems: ds.ZeroVarianceItems(),
	}
	return ds, report, nil
}
