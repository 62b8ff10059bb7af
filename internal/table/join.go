package table

// InnerJoin aligns left and right on their date index and keeps only dates
// present in both. Columns are the union with left's first; a name that
// exists on both sides is suffixed "_x" (left) and "_y" (right).
func InnerJoin(left, right *Table) *Table {
	out := New(left.IndexName)

	leftNames := make(map[string]string, len(left.columns))
	rightNames := make(map[string]string, len(right.columns))
	for _, c := range left.columns {
		name := c
		if right.HasColumn(c) {
			name = c + "_x"
		}
		leftNames[c] = name
		_ = out.AddColumn(name)
	}
	for _, c := range right.columns {
		name := c
		if left.HasColumn(c) {
			name = c + "_y"
		}
		rightNames[c] = name
		_ = out.AddColumn(name)
	}

	for d, lrow := range left.rows {
		rrow, ok := right.rows[d]
		if !ok {
			continue
		}
		row := make(map[string]float64, len(lrow)+len(rrow))
		for c, v := range lrow {
			row[leftNames[c]] = v
		}
		for c, v := range rrow {
			row[rightNames[c]] = v
		}
		out.rows[d] = row
	}
	return out
}
