package mathutil

// Mat is a 2D float64 matrix stored as row-major [][]float64.
type Mat = [][]float64

// NewMat creates a rows x cols matrix initialized to zero, backed by a single
// allocation.
func NewMat(rows, cols int) Mat {
	m := make(Mat, rows)
	data := make([]float64, rows*cols)
	for i := range m {
		m[i] = data[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}
