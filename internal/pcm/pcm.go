// Package pcm converts between floating-point audio samples, the 16-bit
// little-endian wire format, and the base64 transport encoding.
package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"time"
)

// FloatToPCM16 converts float32 samples to the nearest signed 16-bit
// samples. Samples are clamped to [-1.0, 1.0]. The negative and
// non-negative halves use separate scale factors so neither end of the
// int16 range overflows.
func FloatToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s < -1.0 {
			s = -1.0
		} else if s > 1.0 {
			s = 1.0
		}
		if s < 0 {
			out[i] = int16(math.Round(float64(s) * 32768))
		} else {
			out[i] = int16(math.Round(float64(s) * 32767))
		}
	}
	return out
}

// PCM16ToFloat decodes little-endian 16-bit samples into float32 samples
// in [-1.0, 1.0). A trailing odd byte is ignored.
func PCM16ToFloat(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// PCM16Bytes encodes 16-bit samples as little-endian bytes for transport.
func PCM16Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// EncodeString encodes binary data as base64 for text-safe transport.
func EncodeString(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeString is the inverse of EncodeString.
func DecodeString(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// Duration returns the playback length of n bytes of mono 16-bit PCM at
// the given sample rate.
func Duration(n int, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	frames := n / 2
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
