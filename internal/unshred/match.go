package unshred

// MatchTable records each strip's best neighbor candidate on either side.
// -1 means the strip has no candidate (a single-strip image).
type MatchTable struct {
	Right []int
	Left  []int
}

// NewMatchTable picks, for each strip i, the j != i minimizing Forward(i, j)
// as its right match and the j != i minimizing Backward(i, j) as its left
// match. Scans run in ascending index order and only a strictly smaller score
// replaces the current best, so ties resolve to the lowest index.
func NewMatchTable(m *DistanceMatrix) *MatchTable {
	n := m.Len()
	mt := &MatchTable{
		Right: make([]int, n),
		Left:  make([]int, n),
	}

	for i := 0; i < n; i++ {
		right, left := -1, -1
		var bestRight, bestLeft float64
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if f := m.Forward(i, j); right == -1 || f < bestRight {
				right, bestRight = j, f
			}
			if b := m.Backward(i, j); left == -1 || b < bestLeft {
				left, bestLeft = j, b
			}
		}
		mt.Right[i] = right
		mt.Left[i] = left
	}

	return mt
}

// MutualRight reports whether i's right match names i as its left match.
func (mt *MatchTable) MutualRight(i int) bool {
	r := mt.Right[i]
	return r >= 0 && mt.Left[r] == i
}

// MutualLeft reports whether i's left match names i as its right match.
func (mt *MatchTable) MutualLeft(i int) bool {
	l := mt.Left[i]
	return l >= 0 && mt.Right[l] == i
}
