package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-unshred/internal/imaging"
	"github.com/ironsheep/image-unshred/internal/storage"
	"github.com/ironsheep/image-unshred/internal/unshred"
)

type fakeRecorder struct {
	mu   sync.Mutex
	runs []storage.Run
	err  error
}

func (f *fakeRecorder) RecordRun(_ context.Context, r *storage.Run) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.runs = append(f.runs, *r)
	return "run-" + string(rune('0'+len(f.runs))), nil
}

func gradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 7), uint8(255 - x*7), uint8(y * 5), 255})
		}
	}
	return img
}

func uniformFrame(t *testing.T, width, height int) *imaging.Frame {
	t.Helper()
	px := make(unshred.PixelBuffer, width*height)
	for i := range px {
		px[i] = 0x336699
	}
	f, err := imaging.NewFrame(px, width, height)
	require.NoError(t, err)
	return f
}

func TestUnshred_RecoversShreddedImage(t *testing.T) {
	rec := &fakeRecorder{}
	p := New(unshred.New(unshred.WithWorkers(2)), WithStore(rec))
	ctx := context.Background()

	shred, err := p.Shred(ctx, ShredRequest{Source: "gradient", Image: gradientImage(32, 8), Strips: 4, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, "run-1", shred.RunID)

	frame, err := imaging.FromImage(shred.Image)
	require.NoError(t, err)

	out, err := p.Unshred(ctx, Request{Source: "shredded.png", Output: "out.png", Frame: frame, Strips: 4})
	require.NoError(t, err)
	assert.Nil(t, out.Detected)
	assert.Equal(t, 4, out.Strips)
	assert.Equal(t, "run-2", out.RunID)
	require.NotNil(t, out.Frame)
	assert.Len(t, out.Frame.Pixels, 32*8)

	recovered, err := imaging.Compose(shred.Order, out.Result.Order)
	require.NoError(t, err)
	assert.Equal(t, 1.0, unshred.NeighborAccuracy(recovered, unshred.StripOrder{0, 1, 2, 3}))

	require.Len(t, rec.runs, 2)
	assert.Equal(t, storage.StatusShredded, rec.runs[0].Status)
	assert.Equal(t, []int(shred.Order), rec.runs[0].Order)
	assert.Equal(t, storage.StatusOK, rec.runs[1].Status)
	assert.Equal(t, "out.png", rec.runs[1].Output)
	assert.Equal(t, out.Result.SeamStrip, rec.runs[1].SeamStrip)
}

func TestUnshred_DetectsStripCount(t *testing.T) {
	p := New(nil)
	out, err := p.Unshred(context.Background(), Request{Source: "flat", Frame: uniformFrame(t, 16, 4)})
	require.NoError(t, err)
	require.NotNil(t, out.Detected)
	assert.Equal(t, 1, out.Strips)
	assert.Equal(t, unshred.StripOrder{0}, out.Result.Order)
	assert.Empty(t, out.RunID, "no store attached")
}

func TestUnshred_FailureIsRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	p := New(nil, WithStore(rec))

	_, err := p.Unshred(context.Background(), Request{Source: "flat", Frame: uniformFrame(t, 16, 4), Strips: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, unshred.ErrIncompleteReconstruction))

	require.Len(t, rec.runs, 1)
	assert.Equal(t, storage.StatusFailed, rec.runs[0].Status)
	assert.Equal(t, -1, rec.runs[0].SeamStrip)
	assert.NotEmpty(t, rec.runs[0].Error)
}

func TestUnshred_InvalidStripCount(t *testing.T) {
	p := New(nil)
	_, err := p.Unshred(context.Background(), Request{Frame: uniformFrame(t, 16, 4), Strips: 3})
	assert.True(t, errors.Is(err, unshred.ErrInvalidArgument))

	_, err = p.Unshred(context.Background(), Request{Source: "nothing"})
	assert.True(t, errors.Is(err, unshred.ErrInvalidArgument))
}

func TestUnshred_RecorderErrorIsNotFatal(t *testing.T) {
	p := New(nil, WithStore(&fakeRecorder{err: errors.New("disk full")}))
	out, err := p.Unshred(context.Background(), Request{Frame: uniformFrame(t, 8, 2), Strips: 1})
	require.NoError(t, err)
	assert.Empty(t, out.RunID)
}

func TestShred_Invalid(t *testing.T) {
	p := New(nil)
	_, err := p.Shred(context.Background(), ShredRequest{Image: gradientImage(10, 2), Strips: 3})
	assert.True(t, errors.Is(err, unshred.ErrInvalidArgument))

	_, err = p.Shred(context.Background(), ShredRequest{Strips: 2})
	assert.True(t, errors.Is(err, unshred.ErrInvalidArgument))
}
