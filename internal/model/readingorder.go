package model

import "sort"

// RowTolerance is the vertical band, in layout units, inside which two top
// edges are treated as the same row.
const RowTolerance = 6.0

// ReadingOrder returns a copy of xs sorted top-to-bottom, left-to-right.
//
// Items are sorted by top edge and grouped into rows: an item joins the
// current row when its top edge is within tol of the row's first item. Each
// row is sorted by left edge. Grouping keeps the ordering transitive, which a
// pairwise "same row if within tol" comparator is not. Items in one row whose
// left edges also fall within tol of each other are ordered by tie (when
// non-nil), then by exact position.
func ReadingOrder[T any](xs []T, geom func(T) Geometry, tol float64, tie func(a, b T) int) []T {
	out := make([]T, len(xs))
	copy(out, xs)
	if len(out) < 2 {
		return out
	}
	if tol < 0 {
		tol = 0
	}

	top := func(t T) float64 { return geom(t).Y }
	left := func(t T) float64 { return geom(t).X }

	sort.SliceStable(out, func(i, j int) bool { return top(out[i]) < top(out[j]) })
	for _, row := range bands(out, top, tol) {
		sort.SliceStable(row, func(i, j int) bool { return left(row[i]) < left(row[j]) })
		for _, col := range bands(row, left, tol) {
			sort.SliceStable(col, func(i, j int) bool {
				if tie != nil {
					if c := tie(col[i], col[j]); c != 0 {
						return c < 0
					}
				}
				a, b := geom(col[i]), geom(col[j])
				if a.X != b.X {
					return a.X < b.X
				}
				return a.Y < b.Y
			})
		}
	}
	return out
}

// bands splits sorted xs into consecutive runs whose key stays within tol of
// the run's first element. The returned slices alias xs.
func bands[T any](xs []T, key func(T) float64, tol float64) [][]T {
	var out [][]T
	start := 0
	for start < len(xs) {
		first := key(xs[start])
		end := start + 1
		for end < len(xs) && key(xs[end])-first <= tol {
			end++
		}
		out = append(out, xs[start:end])
		start = end
	}
	return out
}

// SortSnapshots orders sibling snapshots by reading order.
func SortSnapshots(nodes []NodeSnapshot, tol float64) []NodeSnapshot {
	return ReadingOrder(nodes, func(n NodeSnapshot) Geometry { return n.Geometry }, tol, nil)
}
