package sink

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cignus/beamprofiler/beamcalc"
	"github.com/cignus/beamprofiler/internal/logging"
)

func TestAppendBatchRolloverAndFlush(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "measurements.csv")

	s, err := Open(path, 1.0, logging.NoOp())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const n = 2500
	base := time.Now()
	for i := 0; i < n; i++ {
		res := beamcalc.Result{Xc: 10, Yc: 20, Dx: 5, Dy: 4, Phi: 1.5}
		s.Append(FromResult(uint32(i), base.Add(time.Duration(i)*33*time.Millisecond), res))
	}
	s.Flush()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		lines++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := n + 1 // header + one line per record
	if lines != want {
		t.Fatalf("lines = %d, want %d", lines, want)
	}
}

func TestNaNRecordWritesAllZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "measurements.csv")

	s, err := Open(path, 2.0, logging.NoOp())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Append(FromResult(0, time.Now(), beamcalc.Result{NaN: true}))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "Index,Timestamp,Center X,Center Y,Width X,Width Y,Azimuth,Ellipticity\n"
	got := string(b)
	if len(got) < len(want) || got[:len(want)] != want {
		t.Fatalf("header mismatch: %q", got)
	}
	if !strings.HasSuffix(got, ",0,0,0,0,0.0,0.000\n") {
		t.Errorf("NaN record line = %q, want all-zero numeric fields", got[len(want):])
	}
}

func TestOpenFailureIsSynchronous(t *testing.T) {
	if _, err := Open("/nonexistent-dir-for-test/measurements.csv", 1.0, logging.NoOp()); err == nil {
		t.Fatal("want error opening a file in a nonexistent directory")
	}
}
