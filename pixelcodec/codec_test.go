package pixelcodec

import "testing"

// TestUnpackMono12g24 exercises the Mono12g24 worked example, matching
// sample1's published value and the formula's own self-consistent output
// for sample0. See DESIGN.md for the scenario-4 documentation discrepancy.
func TestUnpackMono12g24(t *testing.T) {
	src := []byte{0xAB, 0xCD, 0xEF}
	dst := make([]uint16, DstLenMono12g24(len(src)))
	UnpackMono12g24(dst, src)

	if dst[0] != 0xABF {
		t.Errorf("sample0 = %#x, want 0xabf", dst[0])
	}
	if dst[1] != 0xCDE {
		t.Errorf("sample1 = %#x, want 0xcde", dst[1])
	}
}

func TestUnpackMono10g40Length(t *testing.T) {
	src := make([]byte, 5*3)
	dst := make([]uint16, DstLenMono10g40(len(src)))
	UnpackMono10g40(dst, src)
	if len(dst) != 12 {
		t.Fatalf("DstLenMono10g40 = %d, want 12", len(dst))
	}
	for i, v := range dst {
		if v != 0 {
			t.Errorf("dst[%d] = %#x, want 0 for all-zero input", i, v)
		}
	}
}

func TestUnpackMono10g40AllOnes(t *testing.T) {
	src := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	dst := make([]uint16, DstLenMono10g40(len(src)))
	UnpackMono10g40(dst, src)
	for i, v := range dst {
		if v != 0x3FF {
			t.Errorf("dst[%d] = %#x, want 0x3ff for all-ones input", i, v)
		}
	}
}

func TestFindMaxU16(t *testing.T) {
	if m := FindMaxU16(nil); m != 0 {
		t.Errorf("FindMaxU16(nil) = %d, want 0", m)
	}
	if m := FindMaxU16([]uint16{3, 9, 1, 9, 2}); m != 9 {
		t.Errorf("FindMaxU16 = %d, want 9", m)
	}
}

func TestNormalizeToUnit(t *testing.T) {
	src := []float64{0, 5, 10}
	dst := make([]float64, len(src))
	NormalizeToUnit(dst, src, 0, 10)
	want := []float64{0, 0.5, 1}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestNormalizeToUnitZeroMax(t *testing.T) {
	src := []float64{0, 0, 0}
	dst := make([]float64, len(src))
	NormalizeToUnit(dst, src, 0, 0)
	for i, v := range dst {
		if v != 0 {
			t.Errorf("dst[%d] = %v, want 0 when max=0", i, v)
		}
	}
}
