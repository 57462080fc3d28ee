// Package pixelcodec unpacks the packed monochrome sensor formats emitted
// by the camera driver (Mono10g40, Mono12g24) into 16-bit linear arrays,
// and provides the linear-time max-scan and normalization helpers used by
// the capture worker and display path.
//
// Every operation here is zero-allocation: callers own both the source and
// destination buffers and these functions never resize or replace them.
// Inputs are trusted; there is no format validation because the pixel
// format is negotiated once with the camera driver (spec §6) and is not
// expected to vary frame to frame.
//
// Grounded on libs/beam_calc/beam_calc.c's cgn_convert_10g40_to_u16 and
// cgn_convert_12g24_to_u16 (AusOcean/orion-project/beam-inspector, via
// the retrieved original_source), which in turn follow the IDS peak
// comfort SDK's packed-pixel layouts (calc/ids/ids_capture.c).
package pixelcodec

import "gonum.org/v1/gonum/floats"

// UnpackMono10g40 unpacks a Mono10g40 buffer: groups of 5 packed bytes
// decode to 4 10-bit samples, each stored in the low bits of a 16-bit word
// (the payload sits in bits [9:0]). dst must have room for DstLenMono10g40(len(src))
// elements; only that many are written.
func UnpackMono10g40(dst []uint16, src []byte) {
	n := len(src) / 5
	for g := 0; g < n; g++ {
		b0 := src[g*5+0]
		b1 := src[g*5+1]
		b2 := src[g*5+2]
		b3 := src[g*5+3]
		b4 := src[g*5+4]

		dst[g*4+0] = uint16(((b4 & 0x03) >> 0) | (b0 << 2)) | uint16(b0>>6)<<8
		dst[g*4+1] = uint16(((b4 & 0x0C) >> 2) | (b1 << 2)) | uint16(b1>>6)<<8
		dst[g*4+2] = uint16(((b4 & 0x30) >> 4) | (b2 << 2)) | uint16(b2>>6)<<8
		dst[g*4+3] = uint16(((b4 & 0xC0) >> 6) | (b3 << 2)) | uint16(b3>>6)<<8
	}
}

// DstLenMono10g40 returns the number of uint16 samples UnpackMono10g40
// produces from srcBytes bytes of packed input.
func DstLenMono10g40(srcBytes int) int { return srcBytes / 5 * 4 }

// UnpackMono12g24 unpacks a Mono12g24 buffer: groups of 3 packed bytes
// decode to 2 12-bit samples. dst must have room for
// DstLenMono12g24(len(src)) elements.
func UnpackMono12g24(dst []uint16, src []byte) {
	n := len(src) / 3
	for g := 0; g < n; g++ {
		b0 := src[g*3+0]
		b1 := src[g*3+1]
		b2 := src[g*3+2]

		dst[g*2+0] = uint16((b2&0x0F)|(b0<<4)) | uint16(b0>>4)<<8
		dst[g*2+1] = uint16((b2>>4)|(b1<<4)) | uint16(b1>>4)<<8
	}
}

// DstLenMono12g24 returns the number of uint16 samples UnpackMono12g24
// produces from srcBytes bytes of packed input.
func DstLenMono12g24(srcBytes int) int { return srcBytes / 3 * 2 }

// FindMaxU16 returns the largest value in buf, or 0 for an empty buffer.
func FindMaxU16(buf []uint16) uint16 {
	var m uint16
	for _, v := range buf {
		if v > m {
			m = v
		}
	}
	return m
}

// FindMaxF64 returns the largest value in buf using gonum's linear-time
// max scan, or 0 for an empty buffer.
func FindMaxF64(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	return floats.Max(buf)
}

// NormalizeToUnit maps src into dst using (v-min)/max, NOT (v-min)/(max-min).
// This is the documented behavior for the background-subtracted display
// path, where min is expected to be close to 0 after noise masking; see
// spec.md's "Open question" in §9 for the quirk this preserves. max=0 is
// treated as a no-op (dst is set to 0) to avoid a division by zero on an
// all-dark frame.
func NormalizeToUnit(dst, src []float64, min, max float64) {
	if max == 0 {
		for i := range src {
			dst[i] = 0
		}
		return
	}
	inv := 1 / max
	for i, v := range src {
		dst[i] = (v - min) * inv
	}
}
