package watch

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-unshred/internal/imaging"
	"github.com/ironsheep/image-unshred/internal/pipeline"
	"github.com/ironsheep/image-unshred/internal/unshred"
)

func gradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 7), uint8(255 - x*7), uint8(y * 5), 255})
		}
	}
	return img
}

// writeAtomically writes a PNG next to path and renames it into place so the
// watcher never sees a half-written file.
func writeAtomically(t *testing.T, path string, img image.Image) {
	t.Helper()
	tmp := filepath.Join(filepath.Dir(filepath.Dir(path)), filepath.Base(path)+".tmp")
	f, err := os.Create(tmp)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	require.NoError(t, os.Rename(tmp, path))
}

func shreddedGradient(t *testing.T) (image.Image, unshred.StripOrder) {
	t.Helper()
	img, order, err := imaging.Shred(gradientImage(32, 8), 4, 11)
	require.NoError(t, err)
	return img, order
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "scan.unshredded.png", OutputName("/in/scan.jpg"))
	assert.Equal(t, "a.b.unshredded.png", OutputName("a.b.png"))
	assert.Equal(t, "noext.unshredded.png", OutputName("noext"))
}

func TestIsImageFile(t *testing.T) {
	for path, want := range map[string]bool{
		"x.png":               true,
		"X.JPG":               true,
		"x.webp":              true,
		"x.tiff":              true,
		"notes.txt":           false,
		"x.unshredded.png":    false,
		"dir/.hidden.png.tmp": false,
	} {
		assert.Equal(t, want, IsImageFile(path), path)
	}
}

func TestNew_Validates(t *testing.T) {
	dir := t.TempDir()

	_, err := New(Config{InputDir: filepath.Join(dir, "missing"), OutputDir: dir}, nil)
	assert.Error(t, err)

	_, err = New(Config{InputDir: dir}, nil)
	assert.Error(t, err)

	file := filepath.Join(dir, "file.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(Config{InputDir: file, OutputDir: dir}, nil)
	assert.Error(t, err)

	out := filepath.Join(dir, "nested", "out")
	w, err := New(Config{InputDir: dir, OutputDir: out}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettle, w.cfg.Settle)
	assert.DirExists(t, out)
}

func TestProcess(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	img, _ := shreddedGradient(t)
	src := filepath.Join(in, "shredded.png")
	writeAtomically(t, src, img)

	w, err := New(Config{InputDir: in, OutputDir: out, Strips: 4}, pipeline.New(nil))
	require.NoError(t, err)

	res := w.Process(context.Background(), src)
	require.NoError(t, res.Err)
	assert.Equal(t, filepath.Join(out, "shredded.unshredded.png"), res.Output)

	restored, err := imaging.LoadFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t, 32, restored.Width)
	assert.Equal(t, 8, restored.Height)

	// a rotation of the original: every column steps red by 7 except at most
	// one seam
	steps := 0
	for x := 0; x+1 < restored.Width; x++ {
		a := unshred.DecodeRGB(restored.Pixels[x])
		b := unshred.DecodeRGB(restored.Pixels[x+1])
		if int(b.R)-int(a.R) == 7 {
			steps++
		}
	}
	assert.GreaterOrEqual(t, steps, restored.Width-2)
}

func TestProcess_Errors(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	w, err := New(Config{InputDir: in, OutputDir: out, Strips: 4}, nil)
	require.NoError(t, err)

	bogus := filepath.Join(in, "bogus.png")
	require.NoError(t, os.WriteFile(bogus, []byte("not an image"), 0o644))
	res := w.Process(context.Background(), bogus)
	assert.True(t, errors.Is(res.Err, unshred.ErrPixelAcquisition))

	odd := filepath.Join(in, "odd.png")
	writeAtomically(t, odd, gradientImage(30, 4))
	res = w.Process(context.Background(), odd)
	assert.True(t, errors.Is(res.Err, unshred.ErrInvalidArgument))
	assert.NoFileExists(t, res.Output)
}

func TestRun_ProcessesDroppedFile(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	results := make(chan Result, 4)

	w, err := New(Config{InputDir: in, OutputDir: out, Strips: 4, Settle: 20 * time.Millisecond}, nil,
		WithNotify(func(r Result) { results <- r }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	img, _ := shreddedGradient(t)
	// give the watcher a moment to register the directory
	time.Sleep(100 * time.Millisecond)
	writeAtomically(t, filepath.Join(in, "drop.png"), img)

	select {
	case r := <-results:
		require.NoError(t, r.Err)
		assert.Equal(t, filepath.Join(out, "drop.unshredded.png"), r.Output)
		assert.FileExists(t, r.Output)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the dropped file to be processed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ProcessExisting(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	img, _ := shreddedGradient(t)
	writeAtomically(t, filepath.Join(in, "old.png"), img)
	require.NoError(t, os.WriteFile(filepath.Join(in, "readme.txt"), []byte("skip"), 0o644))

	results := make(chan Result, 4)
	w, err := New(Config{InputDir: in, OutputDir: out, Strips: 4, Settle: 10 * time.Millisecond, ProcessExisting: true}, nil,
		WithNotify(func(r Result) { results <- r }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	select {
	case r := <-results:
		require.NoError(t, r.Err)
		assert.Equal(t, filepath.Join(in, "old.png"), r.Source)
	case <-time.After(5 * time.Second):
		t.Fatal("existing file was not processed")
	}
}
