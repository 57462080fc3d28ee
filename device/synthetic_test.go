package device

import (
	"testing"
	"time"

	"github.com/cignus/beamprofiler/pixelcodec"
)

func TestSyntheticProducesDecodableFrames(t *testing.T) {
	cam := NewSynthetic(SyntheticOptions{
		Width: 64, Height: 64, Sigma: 6, Peak: 3000, Background: 50,
		FrameInterval: time.Millisecond,
	})
	if err := cam.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cam.Close()

	if _, err := cam.NegotiatePixelFormat(Mono12g24); err != nil {
		t.Fatalf("NegotiatePixelFormat: %v", err)
	}
	if err := cam.StartAcquisition(); err != nil {
		t.Fatalf("StartAcquisition: %v", err)
	}
	defer cam.StopAcquisition()

	f, err := cam.WaitForFrame(time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("WaitForFrame: %v", err)
	}
	if f.Width != 64 || f.Height != 64 {
		t.Fatalf("frame size = %dx%d, want 64x64", f.Width, f.Height)
	}

	dst := make([]uint16, pixelcodec.DstLenMono12g24(len(f.Buf)))
	pixelcodec.UnpackMono12g24(dst, f.Buf)
	if len(dst) != f.Width*f.Height {
		t.Fatalf("unpacked %d samples, want %d", len(dst), f.Width*f.Height)
	}

	if m := pixelcodec.FindMaxU16(dst); m < 1000 {
		t.Errorf("max sample = %d, want a bright spot above 1000", m)
	}

	if err := cam.ReleaseFrame(f); err != nil {
		t.Errorf("ReleaseFrame: %v", err)
	}
}

func TestSyntheticWaitForFrameBeforeStartFails(t *testing.T) {
	cam := NewSynthetic(SyntheticOptions{Width: 16, Height: 16})
	cam.Open()
	if _, err := cam.WaitForFrame(time.Now().Add(time.Millisecond)); err != ErrNoFrame {
		t.Fatalf("err = %v, want ErrNoFrame", err)
	}
}

func TestPackUnpackMono10g40RoundTrip(t *testing.T) {
	samples := make([]uint16, 4*7)
	for i := range samples {
		samples[i] = uint16(i*37) & 0x3FF
	}
	packed := packMono10g40(samples)
	out := make([]uint16, pixelcodec.DstLenMono10g40(len(packed)))
	pixelcodec.UnpackMono10g40(out, packed)
	for i := range samples {
		if out[i] != samples[i] {
			t.Fatalf("sample %d = %#x, want %#x", i, out[i], samples[i])
		}
	}
}
