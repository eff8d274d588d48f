package rtevoked

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDetectRisingEdgeFindsFirstCrossing(t *testing.T) {
	block := mat.NewDense(2, 5, []float64{
		0, 0, 0, 0, 0, // channel 0
		0, 0, 5, 5, 5, // channel 1: stim
	})
	col, found := DetectRisingEdge(block, 1, 0.5, 0)
	if !found || col != 2 {
		t.Fatalf("DetectRisingEdge = (%d, %v), want (2, true)", col, found)
	}
}

func TestDetectRisingEdgeNoCrossing(t *testing.T) {
	block := mat.NewDense(1, 4, []float64{0, 0, 0, 0})
	_, found := DetectRisingEdge(block, 0, 0.5, 0)
	if found {
		t.Fatal("expected no rising edge in a flat signal")
	}
}

func TestDetectRisingEdgeStartColAssumesZeroBaseline(t *testing.T) {
	block := mat.NewDense(1, 3, []float64{5, 5, 5})
	col, found := DetectRisingEdge(block, 0, 1, 0)
	if !found || col != 0 {
		t.Fatalf("DetectRisingEdge = (%d, %v), want (0, true) against the assumed zero baseline", col, found)
	}
}

func TestDetectRisingEdgeOutOfRangeChannel(t *testing.T) {
	block := mat.NewDense(2, 3, nil)
	col, found := DetectRisingEdge(block, 7, 0.5, 0)
	if found || col != 0 {
		t.Fatalf("DetectRisingEdge with out-of-range channel = (%d, %v), want (0, false)", col, found)
	}
}

func TestDetectRisingEdgeRespectsStartCol(t *testing.T) {
	block := mat.NewDense(1, 6, []float64{0, 5, 5, 5, 10, 10})
	col, found := DetectRisingEdge(block, 0, 2, 2)
	if !found || col != 4 {
		t.Fatalf("DetectRisingEdge with startCol=2 = (%d, %v), want (4, true)", col, found)
	}
}
