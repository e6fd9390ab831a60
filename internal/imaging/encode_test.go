package imaging

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestSave(t *testing.T) {
	img := createGradientImage(16, 4)
	dir := t.TempDir()

	for _, name := range []string{"out.png", "out.jpg", "out.bmp", "out.unknown"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(path, img); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			f, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if f.Width != 16 || f.Height != 4 {
				t.Errorf("dimensions: got %dx%d, want 16x4", f.Width, f.Height)
			}
		})
	}
}

func TestSave_BadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.png")
	if err := Save(path, createInMemoryImage(2, 2, color.Black)); err == nil {
		t.Error("Save should fail for a missing directory")
	}
	if _, err := os.Stat(path); err == nil {
		t.Error("file should not exist")
	}
}

func TestEncodeInline(t *testing.T) {
	enc, err := EncodeInline(createInMemoryImage(3, 5, color.White))
	if err != nil {
		t.Fatalf("EncodeInline failed: %v", err)
	}
	if enc.Width != 3 || enc.Height != 5 || enc.MimeType != "image/png" || enc.ImageBase64 == "" {
		t.Errorf("unexpected result: %+v", enc)
	}
}
