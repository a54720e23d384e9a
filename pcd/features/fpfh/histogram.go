package fpfh

// Histograms stores one descriptor per row. Each row is the concatenation
// of the f1, f2 and f3 sub-histograms, each summing to 100 unless empty.
type Histograms struct {
	Bins [3]int
	Data []float32
}

func newHistograms(bins [3]int, n int) *Histograms {
	h := &Histograms{Bins: bins}
	h.Data = make([]float32, n*h.Dim())
	return h
}

// Dim returns the number of elements of a row.
func (h *Histograms) Dim() int {
	return h.Bins[0] + h.Bins[1] + h.Bins[2]
}

func (h *Histograms) Len() int {
	if h == nil || h.Dim() == 0 {
		return 0
	}
	return len(h.Data) / h.Dim()
}

// Row returns the i-th descriptor. The returned slice shares the storage.
func (h *Histograms) Row(i int) []float32 {
	d := h.Dim()
	return h.Data[i*d : (i+1)*d : (i+1)*d]
}

// L1Distance returns the sum of absolute differences between two rows.
func L1Distance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}
