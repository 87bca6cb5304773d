package library

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeWAV writes a silent 16-bit mono PCM file of the given length.
func writeWAV(t *testing.T, path string, sampleRate, seconds int) {
	t.Helper()
	dataLen := sampleRate * 2 * seconds
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+dataLen))
	b.WriteString("WAVEfmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(dataLen))
	b.Write(make([]byte, dataLen))
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
}

func TestTagDuration(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
		want int
		ok   bool
	}{
		{"id3v2.3", map[string]interface{}{"TLEN": "215000"}, 215, true},
		{"rounds", map[string]interface{}{"TLEN": "1499"}, 1, true},
		{"id3v2.2", map[string]interface{}{"TLE": " 60000 "}, 60, true},
		{"garbage", map[string]interface{}{"TLEN": "long"}, 0, false},
		{"zero", map[string]interface{}{"TLEN": "0"}, 0, false},
		{"missing", map[string]interface{}{"TIT2": "x"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tagDuration(tt.raw)
			if (got != nil) != tt.ok {
				t.Fatalf("tagDuration() = %v, want ok=%v", got, tt.ok)
			}
			if got != nil && *got != tt.want {
				t.Errorf("tagDuration() = %d, want %d", *got, tt.want)
			}
		})
	}
}

func TestFileDuration(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tone.wav")
	writeWAV(t, wavPath, 8000, 3)
	if got := fileDuration(wavPath); got == nil || *got != 3 {
		t.Errorf("wav duration = %v, want 3", got)
	}

	bogus := filepath.Join(dir, "bogus.mp3")
	if err := os.WriteFile(bogus, []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := fileDuration(bogus); got != nil {
		t.Errorf("undecodable mp3 gave duration %d", *got)
	}
	if got := fileDuration(filepath.Join(dir, "x.ogg")); got != nil {
		t.Errorf("unsupported format gave duration %d", *got)
	}
}

func TestScanFillsDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.wav")
	writeWAV(t, path, 8000, 2)

	s := openTestStore(t)
	ctx := context.Background()
	if _, err := s.Scan(ctx, []string{dir}, nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	got, err := s.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DurationSec == nil || *got.DurationSec != 2 {
		t.Errorf("scan should record the decoded duration, got %v", got.DurationSec)
	}
}
