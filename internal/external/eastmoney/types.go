package eastmoney

// Table is an untyped tabular response from an upstream quote service.
// Column names differ between probes (push2 field IDs, legacy snapshot
// keys), so consumers resolve logical fields against ordered alias lists
// instead of assuming a fixed schema.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumn reports whether a column is present
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}
