package capture

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// TestWriteWAVHeader verifies the RIFF header fields byte for byte.
func TestWriteWAVHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}

	var buf bytes.Buffer
	if err := writeWAV(&buf, pcm, 16000, 1); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	data := buf.Bytes()
	if len(data) != 44+len(pcm) {
		t.Fatalf("size = %d, want %d", len(data), 44+len(pcm))
	}
	if string(data[:4]) != "RIFF" || string(data[8:16]) != "WAVEfmt " {
		t.Fatalf("bad magic: %q %q", data[:4], data[8:16])
	}
	if got := binary.LittleEndian.Uint32(data[4:]); got != uint32(36+len(pcm)) {
		t.Fatalf("riff size = %d, want %d", got, 36+len(pcm))
	}
	if got := binary.LittleEndian.Uint16(data[20:]); got != 1 {
		t.Fatalf("format tag = %d, want 1 (PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(data[22:]); got != 1 {
		t.Fatalf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:]); got != 16000 {
		t.Fatalf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint32(data[28:]); got != 32000 {
		t.Fatalf("byte rate = %d, want 32000", got)
	}
	if got := binary.LittleEndian.Uint16(data[34:]); got != 16 {
		t.Fatalf("bits per sample = %d, want 16", got)
	}
	if string(data[36:40]) != "data" {
		t.Fatalf("data chunk magic = %q", data[36:40])
	}
	if got := binary.LittleEndian.Uint32(data[40:]); got != uint32(len(pcm)) {
		t.Fatalf("data size = %d, want %d", got, len(pcm))
	}
	if !bytes.Equal(data[44:], pcm) {
		t.Fatal("payload mismatch")
	}
}
