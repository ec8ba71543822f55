package variables

import (
	"fmt"
	"sort"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"
)

// Matrix is the clustering input: one row per record that has a value for every column
type Matrix struct {
	Columns   []string    `json:"columns"`
	RecordIDs []string    `json:"record_ids"`
	Rows      [][]float64 `json:"rows"`
}

// Len returns the number of complete rows
func (m Matrix) Len() int {
	return len(m.Rows)
}

// BuildMatrix joins the selected numeric variables by record ID. Records missing any
// selected column are left out. An empty selection means every numeric variable.
func BuildMatrix(vars []survey.Variable, columns []string) (Matrix, error) {
	byName := make(map[string]survey.Variable, len(vars))
	for _, v := range vars {
		byName[v.Name] = v
	}

	if len(columns) == 0 {
		for _, v := range vars {
			if v.IsNumeric() {
				columns = append(columns, v.Name)
			}
		}
		sort.Strings(columns)
	}

	if len(columns) == 0 {
		return Matrix{}, nil
	}

	indexed := make([]map[string]float64, len(columns))
	for i, name := range columns {
		v, ok := byName[name]
		if !ok {
			return Matrix{}, core.NewUnknownVariableError(name)
		}
		if !v.IsNumeric() {
			return Matrix{}, fmt.Errorf("%w: %s", core.ErrNotNumeric, name)
		}
		indexed[i] = v.NumericByRecord()
	}

	m := Matrix{Columns: append([]string(nil), columns...)}

	// The first column's record IDs are in record order, and any complete row must appear there.
	for _, id := range byName[columns[0]].RecordIDs {
		row := make([]float64, len(columns))
		complete := true
		for c := range columns {
			value, ok := indexed[c][id]
			if !ok {
				complete = false
				break
			}
			row[c] = value
		}
		if complete {
			m.RecordIDs = append(m.RecordIDs, id)
			m.Rows = append(m.Rows, row)
		}
	}

	return m, nil
}
