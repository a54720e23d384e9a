package registration

import (
	"strings"

	"github.com/seqsense/pcreg/mat"
)

// Rejector filters a correspondence set.
// RemainingCorrespondences must not modify original and must be safe to call
// repeatedly with different sets.
type Rejector interface {
	Name() string
	RemainingCorrespondences(original Correspondences) Correspondences
}

// Rejection applies a Rejector to a stored input set.
type Rejection struct {
	Rejector Rejector

	input    Correspondences
	hasInput bool
}

func NewRejection(r Rejector) *Rejection {
	return &Rejection{Rejector: r}
}

func (r *Rejection) SetInputCorrespondences(c Correspondences) {
	r.input = c
	r.hasInput = true
}

func (r *Rejection) InputCorrespondences() Correspondences {
	return r.input
}

// Correspondences returns the filtered input.
// Missing or empty input gives an empty result, which is not an error.
func (r *Rejection) Correspondences() Correspondences {
	if !r.hasInput || len(r.input) == 0 {
		return nil
	}
	if r.Rejector == nil {
		opsf("%s: rejector not set, can't compute correspondences", name(r.Rejector))
		return nil
	}
	out := r.Rejector.RemainingCorrespondences(r.input)
	diagf("%s: %d/%d correspondences remaining", r.Rejector.Name(), len(out), len(r.input))
	return out
}

// RejectedQueryIndices returns the query indices of the input which are
// not in remaining. Both sets must be sorted by query index.
func (r *Rejection) RejectedQueryIndices(remaining Correspondences) []int {
	if !r.hasInput {
		opsf("%s: input correspondences not set, can't compute rejected indices", name(r.Rejector))
		return nil
	}
	return setDifference(r.input.QueryIndices(), remaining.QueryIndices())
}

func name(r Rejector) string {
	if r == nil {
		return "<nil>"
	}
	return r.Name()
}

// setDifference returns the elements of sorted a not in sorted b.
func setDifference(a, b []int) []int {
	var out []int
	var j int
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j < len(b) && b[j] == v {
			j++
			continue
		}
		out = append(out, v)
	}
	return out
}

// SourceTransformer is implemented by rejectors holding data in the source
// frame. WithSourceTransform returns a copy of the rejector for source
// points moved by m.
type SourceTransformer interface {
	WithSourceTransform(m mat.Mat4) Rejector
}

// WithSourceTransform returns r adapted to a source moved by m.
// Rejectors not implementing SourceTransformer are returned as is.
func WithSourceTransform(r Rejector, m mat.Mat4) Rejector {
	if t, ok := r.(SourceTransformer); ok {
		return t.WithSourceTransform(m)
	}
	return r
}

type chain []Rejector

// Chain composes rejectors, feeding the output of each into the next.
// It stops as soon as the set becomes empty.
func Chain(rejectors ...Rejector) Rejector {
	return chain(rejectors)
}

func (c chain) Name() string {
	names := make([]string, len(c))
	for i, r := range c {
		names[i] = r.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c chain) WithSourceTransform(m mat.Mat4) Rejector {
	out := make(chain, len(c))
	for i, r := range c {
		out[i] = WithSourceTransform(r, m)
	}
	return out
}

func (c chain) RemainingCorrespondences(original Correspondences) Correspondences {
	out := original.Clone()
	for _, r := range c {
		if len(out) == 0 {
			return nil
		}
		n := len(out)
		out = r.RemainingCorrespondences(out)
		diagf("%s: %d/%d correspondences remaining", r.Name(), len(out), n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
