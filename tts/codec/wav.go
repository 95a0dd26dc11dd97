package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavHeaderSize is the fixed size of a minimal RIFF/WAVE/fmt/data header.
const wavHeaderSize = 44

// WrapWAV wraps raw mono 16-bit PCM bytes in a minimal 44-byte WAV
// container so a platform decoder can handle decoding and resampling.
// A non-positive sampleRate falls back to DefaultSampleRate.
func WrapWAV(pcm []byte, sampleRate int) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
		audioFormat   = 1 // PCM
	)
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	dataSize := uint32(len(pcm))
	byteRate := uint32(sampleRate * numChannels * bitsPerSample / 8)
	blockAlign := uint16(numChannels * bitsPerSample / 8)

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36)+dataSize) //nolint:errcheck
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))            //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint16(audioFormat))   //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))   //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))    //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, byteRate)              //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, blockAlign)            //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample)) //nolint:errcheck

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize) //nolint:errcheck
	buf.Write(pcm)

	return buf.Bytes()
}

// UnwrapWAV strips a minimal WAV header produced by WrapWAV and returns the
// PCM payload and sample rate.
func UnwrapWAV(wav []byte) (pcm []byte, sampleRate int, err error) {
	if len(wav) < wavHeaderSize {
		return nil, 0, fmt.Errorf("%w: WAV shorter than header", ErrDecode)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrDecode)
	}
	sampleRate = int(binary.LittleEndian.Uint32(wav[24:28]))
	dataSize := binary.LittleEndian.Uint32(wav[40:44])
	if int(dataSize) > len(wav)-wavHeaderSize {
		return nil, 0, fmt.Errorf("%w: data chunk exceeds payload", ErrDecode)
	}
	return wav[wavHeaderSize : wavHeaderSize+int(dataSize)], sampleRate, nil
}
