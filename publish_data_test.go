package rtevoked

import (
	"bytes"
	"encoding/binary"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMessageEvokedHeader(t *testing.T) {
	ev := &EvokedResult{
		Data:         mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}),
		Times:        []float64{-0.1, 0, 0.1},
		First:        -0.1,
		Last:         0.1,
		Nave:         7,
		BaselineFrom: -0.2,
		BaselineTo:   0,
	}
	parts := messageEvoked(ev)
	if len(parts) != 2 {
		t.Fatalf("messageEvoked returned %d parts, want 2", len(parts))
	}

	header := bytes.NewReader(parts[0])
	var rows, cols, nave uint32
	var baselineFrom, baselineTo, first, last float32
	binary.Read(header, binary.LittleEndian, &rows)
	binary.Read(header, binary.LittleEndian, &cols)
	binary.Read(header, binary.LittleEndian, &nave)
	binary.Read(header, binary.LittleEndian, &baselineFrom)
	binary.Read(header, binary.LittleEndian, &baselineTo)
	binary.Read(header, binary.LittleEndian, &first)
	binary.Read(header, binary.LittleEndian, &last)

	if rows != 2 || cols != 3 || nave != 7 {
		t.Fatalf("header = (rows=%d cols=%d nave=%d), want (2,3,7)", rows, cols, nave)
	}
	if first != -0.1 || last != 0.1 {
		t.Fatalf("header first/last = (%v,%v), want (-0.1,0.1)", first, last)
	}

	payload := bytes.NewReader(parts[1])
	flat := make([]float32, 6)
	binary.Read(payload, binary.LittleEndian, &flat)
	want := []float32{1, 2, 3, 4, 5, 6}
	for i, v := range want {
		if flat[i] != v {
			t.Fatalf("payload[%d] = %v, want %v", i, flat[i], v)
		}
	}
}
