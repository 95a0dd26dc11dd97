// Package codec converts between base64 payloads, raw 16-bit PCM and
// normalized floating-point sample buffers.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// DefaultSampleRate is the source rate of remotely synthesized speech.
const DefaultSampleRate = 24000

// BytesPerSample is the width of one signed 16-bit PCM sample.
const BytesPerSample = 2

// ErrDecode indicates a malformed audio payload. Callers must treat it as
// non-fatal and fall back to native speech.
var ErrDecode = errors.New("malformed audio payload")

// DecodeBase64 decodes a standard base64 payload into raw bytes.
func DecodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return data, nil
}

// EncodeBase64 encodes raw bytes as standard base64.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// PCMToFloat32 de-interleaves little-endian signed 16-bit PCM into one
// normalized float buffer per channel. Negative samples divide by 32768 and
// non-negative samples by 32767 so the positive rail never clips.
func PCMToFloat32(pcm []byte, channels int) ([][]float32, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: invalid channel count %d", ErrDecode, channels)
	}
	frameSize := BytesPerSample * channels
	if len(pcm) == 0 || len(pcm)%frameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes not aligned to %d-byte frames", ErrDecode, len(pcm), frameSize)
	}

	frames := len(pcm) / frameSize
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := i*frameSize + ch*BytesPerSample
			sample := int16(binary.LittleEndian.Uint16(pcm[off : off+2]))
			if sample < 0 {
				out[ch][i] = float32(sample) / 32768.0
			} else {
				out[ch][i] = float32(sample) / 32767.0
			}
		}
	}
	return out, nil
}

// Float32ToPCM interleaves normalized per-channel sample buffers back into
// little-endian signed 16-bit PCM. It is the inverse of PCMToFloat32 for
// values produced by it.
func Float32ToPCM(samples [][]float32) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrDecode)
	}
	frames := len(samples[0])
	for ch, buf := range samples {
		if len(buf) != frames {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d", ErrDecode, ch, len(buf), frames)
		}
	}

	channels := len(samples)
	pcm := make([]byte, frames*channels*BytesPerSample)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := samples[ch][i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			var sample int16
			if v < 0 {
				sample = int16(v * 32768.0)
			} else {
				sample = int16(v * 32767.0)
			}
			off := (i*channels + ch) * BytesPerSample
			binary.LittleEndian.PutUint16(pcm[off:off+2], uint16(sample))
		}
	}
	return pcm, nil
}

// Duration computes the playback duration of mono 16-bit PCM data.
func Duration(pcmLen, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := pcmLen / (BytesPerSample * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// Silence generates silent 16-bit PCM for the given duration.
func Silence(d time.Duration, sampleRate, channels int) []byte {
	frames := int(d.Seconds() * float64(sampleRate))
	return make([]byte, frames*channels*BytesPerSample)
}

// QuietNoise generates a looping-safe keep-alive buffer: pseudo-random
// samples within +/-amplitude LSB. Exact zeros are avoided because some
// audio stacks suspend graphs that only produce silence.
func QuietNoise(d time.Duration, sampleRate int, amplitude int16) []byte {
	if amplitude < 1 {
		amplitude = 1
	}
	frames := int(d.Seconds() * float64(sampleRate))
	pcm := make([]byte, frames*BytesPerSample)

	// xorshift keeps this deterministic and dependency-free.
	state := uint32(0x9e3779b9)
	span := int32(amplitude)*2 + 1
	for i := 0; i < frames; i++ {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		sample := int16(int32(state%uint32(span)) - int32(amplitude))
		if sample == 0 {
			sample = 1
		}
		binary.LittleEndian.PutUint16(pcm[i*2:i*2+2], uint16(sample))
	}
	return pcm
}
