package registration

import (
	"bytes"
	"math"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/seqsense/pcreg/mat"
	"github.com/seqsense/pcreg/pcd"
)

type rejectAll struct{}

func (rejectAll) Name() string { return "reject_all" }

func (rejectAll) RemainingCorrespondences(Correspondences) Correspondences { return nil }

type mustNotBeCalled struct {
	t *testing.T
}

func (mustNotBeCalled) Name() string { return "must_not_be_called" }

func (r mustNotBeCalled) RemainingCorrespondences(Correspondences) Correspondences {
	r.t.Error("rejector must not be called")
	return nil
}

func TestRejection(t *testing.T) {
	input := Correspondences{
		{Query: 0, Match: 3, Distance: 0.1},
		{Query: 1, Match: 2, Distance: 2},
		{Query: 2, Match: 1, Distance: 0.5},
		{Query: 3, Match: 0, Distance: 1.5},
	}

	t.Run("NoInput", func(t *testing.T) {
		r := NewRejection(mustNotBeCalled{t})
		assert.Nil(t, r.Correspondences())
	})
	t.Run("EmptyInput", func(t *testing.T) {
		r := NewRejection(mustNotBeCalled{t})
		r.SetInputCorrespondences(Correspondences{})
		assert.Nil(t, r.Correspondences())
		assert.Empty(t, r.RejectedQueryIndices(nil))
	})
	t.Run("Filter", func(t *testing.T) {
		r := NewRejection(DistanceRejector{MaxDistance: 1})
		r.SetInputCorrespondences(input)
		assert.Equal(t, input, r.InputCorrespondences())

		remaining := r.Correspondences()
		expected := Correspondences{input[0], input[2]}
		if diff := cmp.Diff(expected, remaining); diff != "" {
			t.Errorf("(-expected +actual):\n%s", diff)
		}
		assert.Equal(t, []int{1, 3}, r.RejectedQueryIndices(remaining))

		// Input is not modified.
		assert.Len(t, r.InputCorrespondences(), 4)
	})
}

func TestRejection_RejectedQueryIndicesWithoutInput(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriters(&buf, nil)
	defer SetLogWriters(os.Stderr, nil)

	r := NewRejection(DistanceRejector{MaxDistance: 1})
	assert.Empty(t, r.RejectedQueryIndices(Correspondences{{Query: 1}}))
	assert.Contains(t, buf.String(), "[registration] ")
	assert.Contains(t, buf.String(), "distance: input correspondences not set")
}

func TestRejection_NilRejector(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriters(&buf, nil)
	defer SetLogWriters(os.Stderr, nil)

	r := NewRejection(nil)
	r.SetInputCorrespondences(Correspondences{{Query: 0, Match: 0}})
	assert.Nil(t, r.Correspondences())
	assert.Contains(t, buf.String(), "<nil>: rejector not set")
}

func TestWithSourceTransform(t *testing.T) {
	input := Correspondences{{Query: 0, Match: 0}, {Query: 1, Match: 1}}
	normals := SurfaceNormalRejector{
		SourceNormals: pcd.Vec3Slice{{1, 0, 0}, {0, 0, 1}},
		TargetNormals: pcd.Vec3Slice{{0, 1, 0}, {0, 0, 1}},
		MaxAngle:      0.1,
	}
	rot := mat.Rotate(0, 0, 1, math.Pi/2)

	testCases := map[string]struct {
		rejector Rejector
		expected Correspondences
	}{
		"SurfaceNormal": {
			rejector: normals,
			expected: input,
		},
		"Chain": {
			rejector: Chain(DistanceRejector{MaxDistance: 1}, normals),
			expected: input,
		},
		"NotTransformable": {
			rejector: DistanceRejector{MaxDistance: 1},
			expected: input,
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			out := WithSourceTransform(tt.rejector, rot).RemainingCorrespondences(input)
			if diff := cmp.Diff(tt.expected, out); diff != "" {
				t.Errorf("(-expected +actual):\n%s", diff)
			}
		})
	}

	// The original rejector keeps its normals.
	assert.Equal(t, Correspondences{{Query: 1, Match: 1}}, normals.RemainingCorrespondences(input))
	assert.Equal(t, "chain(distance,surface_normal)", WithSourceTransform(Chain(DistanceRejector{}, normals), rot).Name())
}

func TestSetDifference(t *testing.T) {
	testCases := map[string]struct {
		a, b     []int
		expected []int
	}{
		"Empty":      {},
		"NoneInB":    {a: []int{1, 2}, expected: []int{1, 2}},
		"AllInB":     {a: []int{1, 2}, b: []int{1, 2}},
		"Partial":    {a: []int{0, 1, 2, 3, 4}, b: []int{1, 3}, expected: []int{0, 2, 4}},
		"ExtraInB":   {a: []int{2, 4}, b: []int{1, 2, 3}, expected: []int{4}},
		"Duplicates": {a: []int{1, 1, 2}, b: []int{1}, expected: []int{1, 2}},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, setDifference(tt.a, tt.b))
		})
	}
}

func TestChain(t *testing.T) {
	input := Correspondences{
		{Query: 0, Match: 1, Distance: 0.5},
		{Query: 1, Match: 1, Distance: 0.2},
		{Query: 2, Match: 2, Distance: 3},
		{Query: 3, Match: 4, Distance: 0.4},
	}

	testCases := map[string]struct {
		chain    func(t *testing.T) Rejector
		input    Correspondences
		expected Correspondences
	}{
		"EmptyChainEmptyInput": {
			chain: func(*testing.T) Rejector { return Chain() },
		},
		"EmptyChain": {
			chain:    func(*testing.T) Rejector { return Chain() },
			input:    input,
			expected: input,
		},
		"EmptyInput": {
			chain: func(t *testing.T) Rejector { return Chain(mustNotBeCalled{t}) },
			input: Correspondences{},
		},
		"DistanceThenOneToOne": {
			chain: func(*testing.T) Rejector {
				return Chain(DistanceRejector{MaxDistance: 1}, OneToOneRejector{})
			},
			input:    input,
			expected: Correspondences{input[1], input[3]},
		},
		"StopOnEmpty": {
			chain: func(t *testing.T) Rejector {
				return Chain(rejectAll{}, mustNotBeCalled{t})
			},
			input: input,
		},
	}
	for name, tt := range testCases {
		tt := tt
		t.Run(name, func(t *testing.T) {
			out := tt.chain(t).RemainingCorrespondences(tt.input)
			if diff := cmp.Diff(tt.expected, out); diff != "" {
				t.Errorf("(-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestChain_Name(t *testing.T) {
	c := Chain(DistanceRejector{}, OneToOneRejector{})
	assert.Equal(t, "chain(distance,one_to_one)", c.Name())
}

func TestSortByDistance(t *testing.T) {
	c := Correspondences{
		{Query: 0, Distance: 3},
		{Query: 1, Distance: 1},
		{Query: 2, Distance: 2},
		{Query: 3, Distance: 1},
	}
	SortByDistance(c)
	assert.Equal(t, []int{1, 3, 2, 0}, c.QueryIndices())

	SortByQuery(c)
	assert.Equal(t, []int{0, 1, 2, 3}, c.QueryIndices())
}
