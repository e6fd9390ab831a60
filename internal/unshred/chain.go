package unshred

import "fmt"

// Junction is one adjacency in a reconstructed chain: strip Right placed
// directly after strip Left, with its Forward score.
type Junction struct {
	Left  int     `json:"left"`
	Right int     `json:"right"`
	Score float64 `json:"score"`
}

// Chain is the output of BuildChain.
type Chain struct {
	// Order is the rotated left-to-right strip order.
	Order StripOrder

	// SeamStrip is the left strip of the weakest appended junction. After
	// rotation it sits at the end of Order. -1 if no appended junction scored
	// above 0.
	SeamStrip int

	// SeamScore is the Forward score of the weakest appended junction.
	SeamScore float64

	// Junctions lists every adjacency in the order it was formed.
	Junctions []Junction
}

// BuildChain grows a strip chain from strip 0 using mutual best matches and
// rotates it so that the weakest junction becomes the image boundary.
//
// Each round first tries to extend the tail: if the tail's right match agrees
// that the tail is its left match, that strip is appended. It then tries the
// same at the head with left matches, prepending. A strip already in the chain
// is never added twice. The walk ends after n-1 rounds or at the first round
// that extends neither end.
//
// The greedy walk starts wherever strip 0 happened to land, so the chain may
// begin mid-image. The true left/right image boundary is assumed to be the
// appended junction with the highest score, and the chain is rotated front to
// back until that junction's left strip is last. Prepended junctions are
// listed in Junctions but never chosen as the seam. A chain whose appended
// junctions all score 0 is not rotated.
//
// If the chain does not reach every strip the partial chain is returned along
// with an error wrapping ErrIncompleteReconstruction.
func BuildChain(mt *MatchTable, m *DistanceMatrix) (*Chain, error) {
	n := m.Len()
	if n == 0 {
		return nil, fmt.Errorf("empty distance matrix: %w", ErrInvalidArgument)
	}

	placed := make([]bool, n)
	chain := make([]int, 1, n)
	chain[0] = 0
	placed[0] = true

	c := &Chain{SeamStrip: -1}
	note := func(left, right int) float64 {
		score := m.Forward(left, right)
		c.Junctions = append(c.Junctions, Junction{Left: left, Right: right, Score: score})
		return score
	}

	for round := 0; round < n-1 && len(chain) < n; round++ {
		grew := false

		tail := chain[len(chain)-1]
		if r := mt.Right[tail]; mt.MutualRight(tail) && !placed[r] {
			chain = append(chain, r)
			placed[r] = true
			if score := note(tail, r); score > c.SeamScore {
				c.SeamScore = score
				c.SeamStrip = tail
			}
			grew = true
		}

		head := chain[0]
		if l := mt.Left[head]; len(chain) < n && mt.MutualLeft(head) && !placed[l] {
			chain = append([]int{l}, chain...)
			placed[l] = true
			note(l, head)
			grew = true
		}

		if !grew {
			break
		}
	}

	c.Order = rotateAfter(chain, c.SeamStrip)

	if len(chain) < n {
		return c, fmt.Errorf("chain reached %d of %d strips: %w",
			len(chain), n, ErrIncompleteReconstruction)
	}

	return c, nil
}

// rotateAfter moves elements from the front to the back until seam has been
// moved. The input is left untouched. A seam not present in order (including
// -1) leaves the order as is.
func rotateAfter(order []int, seam int) StripOrder {
	out := make(StripOrder, len(order))
	copy(out, order)

	at := -1
	for i, s := range out {
		if s == seam {
			at = i
			break
		}
	}
	if at == -1 {
		return out
	}

	rotated := make(StripOrder, 0, len(out))
	rotated = append(rotated, out[at+1:]...)
	rotated = append(rotated, out[:at+1]...)
	return rotated
}
