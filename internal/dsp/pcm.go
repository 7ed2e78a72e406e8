package dsp

import "encoding/binary"

// DecodePCM16 converts little-endian signed 16-bit samples to floats in
// [-1, 1). A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float64 {
	return AppendPCM16(nil, data)
}

// AppendPCM16 decodes data like DecodePCM16 and appends the samples to dst.
func AppendPCM16(dst []float64, data []byte) []float64 {
	n := len(data) / 2
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		dst = append(dst, float64(s)/32768)
	}
	return dst
}

// EncodePCM16 converts integer samples, clamped to the int16 range, to
// little-endian bytes.
func EncodePCM16(samples []int) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		s = max(-32768, min(32767, s))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
	}
	return out
}
