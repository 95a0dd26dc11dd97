package codec

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWrapWAVHeader(t *testing.T) {
	pcm := make([]byte, 480) // 10ms of 24kHz mono
	wav := WrapWAV(pcm, 24000)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	if string(wav[0:4]) != "RIFF" {
		t.Errorf("missing RIFF magic")
	}
	if string(wav[8:12]) != "WAVE" {
		t.Errorf("missing WAVE magic")
	}
	if string(wav[12:16]) != "fmt " {
		t.Errorf("missing fmt chunk")
	}
	if string(wav[36:40]) != "data" {
		t.Errorf("missing data chunk")
	}

	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 24000 {
		t.Errorf("sample rate = %d, want 24000", rate)
	}
	if ch := binary.LittleEndian.Uint16(wav[22:24]); ch != 1 {
		t.Errorf("channels = %d, want 1", ch)
	}
	if bits := binary.LittleEndian.Uint16(wav[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", size, len(pcm))
	}
}

func TestWrapWAVDefaultRate(t *testing.T) {
	wav := WrapWAV([]byte{0, 0}, 0)
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != DefaultSampleRate {
		t.Errorf("default sample rate = %d, want %d", rate, DefaultSampleRate)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav := WrapWAV(pcm, 24000)

	got, rate, err := UnwrapWAV(wav)
	if err != nil {
		t.Fatalf("UnwrapWAV failed: %v", err)
	}
	if rate != 24000 {
		t.Errorf("rate = %d, want 24000", rate)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("payload mismatch: got %v, want %v", got, pcm)
	}
}

func TestUnwrapWAVMalformed(t *testing.T) {
	tests := []struct {
		name string
		wav  []byte
	}{
		{"too short", []byte("RIFF")},
		{"bad magic", bytes.Repeat([]byte{0xAA}, 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := UnwrapWAV(tt.wav); err == nil {
				t.Error("expected error")
			}
		})
	}
}
