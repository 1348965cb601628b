package mrp

import "fmt"

// Dataset is a column-oriented dataset held in memory.  All columns
// have float64 type; categorical variables are stored as zero-based
// level indices.
type Dataset struct {
	data  [][]float64
	names []string
}

// NewDataset constructs a Dataset from a slice of columns and a
// conforming slice of variable names.
func NewDataset(data [][]float64, names []string) (*Dataset, error) {

	if len(data) != len(names) {
		return nil, fmt.Errorf("mrp: %d columns but %d variable names", len(data), len(names))
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("mrp: dataset has no columns")
	}

	n := len(data[0])
	for j := range data {
		if len(data[j]) != n {
			return nil, fmt.Errorf("mrp: column '%s' has length %d, expected %d",
				names[j], len(data[j]), n)
		}
	}

	return &Dataset{data: data, names: names}, nil
}

// Names returns the variable names.  The order agrees with the order
// of the columns.
func (ds *Dataset) Names() []string {
	return ds.names
}

// Data returns the data columns.
func (ds *Dataset) Data() [][]float64 {
	return ds.data
}

// NumObs returns the number of observations (rows).
func (ds *Dataset) NumObs() int {
	return len(ds.data[0])
}

// NumVar returns the number of variables (columns).
func (ds *Dataset) NumVar() int {
	return len(ds.data)
}

// Pos returns the position of the named variable, or -1 if it is not
// present.
func (ds *Dataset) Pos(name string) int {
	for j, na := range ds.names {
		if na == name {
			return j
		}
	}
	return -1
}

// Column returns the column for the named variable.
func (ds *Dataset) Column(name string) ([]float64, error) {
	j := ds.Pos(name)
	if j == -1 {
		return nil, fmt.Errorf("mrp: variable '%s' not found in dataset", name)
	}
	return ds.data[j], nil
}
