package rtevoked

import "gonum.org/v1/gonum/mat"

// copyColsInto copies columns [srcColStart, srcColEnd) of src into dst
// starting at dst column dstColOffset. dst must have at least
// srcColEnd-srcColStart columns available from dstColOffset, and the same
// number of rows as src. It is the one workhorse used throughout the
// buffer and assembler code instead of ad hoc slicing, since mat.Dense's
// own Slice returns a view whose concrete type callers should not need to
// know about.
func copyColsInto(dst *mat.Dense, dstColOffset int, src *mat.Dense, srcColStart, srcColEnd int) {
	rows, _ := dst.Dims()
	for r := 0; r < rows; r++ {
		for c := srcColStart; c < srcColEnd; c++ {
			dst.Set(r, dstColOffset+(c-srcColStart), src.At(r, c))
		}
	}
}

// trimColsLeft returns a new matrix with the leftmost n columns of m
// dropped.
func trimColsLeft(m *mat.Dense, n int) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols-n, nil)
	copyColsInto(out, 0, m, n, cols)
	return out
}

// trimColsRight returns a new matrix keeping only the leading n columns of
// m.
func trimColsRight(m *mat.Dense, n int) *mat.Dense {
	rows, _ := m.Dims()
	out := mat.NewDense(rows, n, nil)
	copyColsInto(out, 0, m, 0, n)
	return out
}
