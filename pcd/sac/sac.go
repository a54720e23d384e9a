// Package sac implements random sample consensus model search.
package sac

type Sampler interface {
	Sample() int
}

type Model interface {
	NumRange() (min, max int)
	Fit([]int) (ModelCoefficients, bool)
}

type ModelCoefficients interface {
	// Evaluate returns the score of the model. Larger is better.
	Evaluate() int
	Inliers(float32) []int
}

type SAC struct {
	Sampler Sampler
	Model   Model

	bestCoeff ModelCoefficients
}

func New(s Sampler, m Model) *SAC {
	return &SAC{Sampler: s, Model: m}
}

// Compute fits the model to n random samples and keeps the best one.
// It returns false if no sample gives a valid model.
// The first model reaching the best score is kept.
func (s *SAC) Compute(n int) bool {
	var bestCoeff ModelCoefficients
	var bestE int

	num, _ := s.Model.NumRange()
	ids := make([]int, num)

	for i := 0; i < n; i++ {
		for j := 0; j < num; j++ {
			ids[j] = s.Sampler.Sample()
		}
		coeff, ok := s.Model.Fit(ids)
		if !ok {
			continue
		}
		e := coeff.Evaluate()
		if bestCoeff == nil || e > bestE {
			bestE = e
			bestCoeff = coeff
		}
	}
	if bestCoeff == nil {
		return false
	}
	s.bestCoeff = bestCoeff
	return true
}

func (s *SAC) Coefficients() ModelCoefficients {
	return s.bestCoeff
}
