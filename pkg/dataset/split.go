package dataset

import "math"

// boundaryTolerance absorbs float error in cumulative fractions such as
// 0.7+0.2.
const boundaryTolerance = 1e-9

// DefaultFractions are the train, validation and test proportions.
var DefaultFractions = []float64{0.7, 0.2, 0.1}

// Range is a half-open interval of sample positions.
type Range struct {
	Start, End int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Split cuts n positions into contiguous ranges proportional to fractions,
// in order. Each boundary is the floor of the cumulative fraction times n,
// and the last range always ends at n. With no fractions, DefaultFractions
// are used.
func Split(n int, fractions ...float64) []Range {
	if len(fractions) == 0 {
		fractions = DefaultFractions
	}

	result := make([]Range, len(fractions))
	cumulative := 0.0
	start := 0
	for i, fraction := range fractions {
		cumulative += fraction
		end := int(math.Floor(cumulative*float64(n) + boundaryTolerance))
		if end > n || i == len(fractions)-1 {
			end = n
		}
		if end < start {
			end = start
		}
		result[i] = Range{Start: start, End: end}
		start = end
	}

	return result
}

// Distribution summarizes the labels of a set of samples.
type Distribution struct {
	Candidates int
	Positives  int

	// Overall is the fraction of all candidates which are positive.
	Overall float64
	// MeanPerSample is the average over samples with at least one candidate
	// of each sample's positive fraction.
	MeanPerSample float64
}

// LabelDistribution computes the label balance of samples. Entities are not
// candidates and are not counted.
func LabelDistribution(samples []*Sample) Distribution {
	d := Distribution{}
	perSampleSum := 0.0
	counted := 0
	for _, s := range samples {
		candidates := s.Candidates()
		positives := s.Positives()
		d.Candidates += candidates
		d.Positives += positives
		if candidates > 0 {
			perSampleSum += float64(positives) / float64(candidates)
			counted++
		}
	}

	if d.Candidates > 0 {
		d.Overall = float64(d.Positives) / float64(d.Candidates)
	}
	if counted > 0 {
		d.MeanPerSample = perSampleSum / float64(counted)
	}
	return d
}
