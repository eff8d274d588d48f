package rtevoked

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func checkRow(t *testing.T, m *mat.Dense, want []float64) {
	t.Helper()
	_, cols := m.Dims()
	if cols != len(want) {
		t.Fatalf("got %d columns, want %d", cols, len(want))
	}
	for c, v := range want {
		if m.At(0, c) != v {
			t.Fatalf("column %d = %v, want %v", c, m.At(0, c), v)
		}
	}
}

func TestAssembleEpochEntirelyFromTriggerBlock(t *testing.T) {
	front := NewFrontBuffer(2, 1)
	front.Ingest(mat.NewDense(1, 3, []float64{1, 2, 3}))
	back := NewBackBuffer(2, 1)
	triggerBlock := mat.NewDense(1, 5, []float64{10, 11, 12, 13, 14})

	epoch := AssembleEpoch(front, back, triggerBlock, 2, 2, 2, 1)
	checkRow(t, epoch, []float64{10, 11, 12, 13})
}

func TestAssembleEpochPullsFromFrontBuffer(t *testing.T) {
	front := NewFrontBuffer(3, 1)
	front.Ingest(mat.NewDense(1, 5, []float64{1, 2, 3, 4, 5}))
	back := NewBackBuffer(2, 1)
	triggerBlock := mat.NewDense(1, 4, []float64{10, 11, 12, 13})

	epoch := AssembleEpoch(front, back, triggerBlock, 0, 3, 2, 1)
	checkRow(t, epoch, []float64{3, 4, 5, 10, 11})
}

func TestAssembleEpochPullsFromBackBuffer(t *testing.T) {
	front := NewFrontBuffer(1, 1)
	front.Ingest(mat.NewDense(1, 2, []float64{5, 6}))
	back := NewBackBuffer(3, 1)
	back.Ingest(mat.NewDense(1, 3, []float64{30, 31, 32}))
	triggerBlock := mat.NewDense(1, 2, []float64{10, 11})

	epoch := AssembleEpoch(front, back, triggerBlock, 0, 1, 3, 1)
	checkRow(t, epoch, []float64{6, 10, 11, 30})
}

func TestAssembleEpochZeroPreStim(t *testing.T) {
	front := NewFrontBuffer(0, 1)
	back := NewBackBuffer(2, 1)
	triggerBlock := mat.NewDense(1, 3, []float64{10, 11, 12})

	epoch := AssembleEpoch(front, back, triggerBlock, 0, 0, 2, 1)
	checkRow(t, epoch, []float64{10, 11})
}
