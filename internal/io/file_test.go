package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"normal-file.mp3", 0, "normal-file.mp3"},
		{"file:with:colons.mp3", 0, "file_with_colons.mp3"},
		{"file<with>brackets.mp3", 0, "file_with_brackets.mp3"},
		{"file/with\\slashes.mp3", 0, "file_with_slashes.mp3"},
		{"file|with|pipes.mp3", 0, "file_with_pipes.mp3"},
		{"file?with*wildcards.mp3", 0, "file_with_wildcards.mp3"},
		{"file\"with\"quotes.mp3", 0, "file_with_quotes.mp3"},
		{"trailing dots...", 0, "trailing dots"},
		{"multiple   spaces", 0, "multiple spaces"},
		{"abcdefghij.mp3", 8, "abcd.mp3"},
		{"abcdefghij.flac", 100, "abcdefghij.flac"},
		{"晴天 - 周杰伦", 4, "晴天 -"},
		{"Mr. Brightside - The Killers", 6, "Mr. Br"},
		{"song.mp3", 3, "son"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeFileName(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileName_Deterministic(t *testing.T) {
	name := "A/B: C?"
	if SanitizeFileName(name, 50) != SanitizeFileName(name, 50) {
		t.Error("SanitizeFileName should be deterministic")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")

	if err := WriteFileAtomic(path, []byte("first"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("temp files left behind: %s", strings.Join(names, ", "))
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "track.mp3")
	if err := WriteFileAtomic(path, []byte("x"), 0644); err == nil {
		t.Error("expected error for missing directory")
	}
	if FileExists(path) {
		t.Error("no file should exist after a failed write")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	if FileExists(filepath.Join(dir, "nope")) {
		t.Error("missing file reported as existing")
	}
	if FileExists(dir) {
		t.Error("directory reported as regular file")
	}
	path := filepath.Join(dir, "yes")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("existing file not reported")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
	if err := EnsureDir(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	return img
}

func TestImageService_PrepareCover(t *testing.T) {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, testImage(200, 100)); err != nil {
		t.Fatal(err)
	}

	svc := NewImageService()
	out, err := svc.PrepareCover(context.Background(), pngBuf.Bytes(), 50, true)
	if err != nil {
		t.Fatalf("PrepareCover: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
		t.Errorf("size = %v, want 50x25", img.Bounds())
	}
}

func TestImageService_PrepareCover_Unchanged(t *testing.T) {
	var jpgBuf bytes.Buffer
	if err := jpeg.Encode(&jpgBuf, testImage(40, 40), nil); err != nil {
		t.Fatal(err)
	}

	out, err := NewImageService().PrepareCover(context.Background(), jpgBuf.Bytes(), 100, true)
	if err != nil {
		t.Fatalf("PrepareCover: %v", err)
	}
	if !bytes.Equal(out, jpgBuf.Bytes()) {
		t.Error("small JPEG should be returned unchanged")
	}
}

func TestImageService_InvalidData(t *testing.T) {
	if _, err := NewImageService().PrepareCover(context.Background(), []byte("not an image"), 10, true); err == nil {
		t.Error("expected decode error")
	}
}
