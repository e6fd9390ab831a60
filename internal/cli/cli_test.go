package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-unshred/internal/imaging"
	"github.com/ironsheep/image-unshred/internal/storage"
	"github.com/ironsheep/image-unshred/internal/unshred"
)

type testEnv struct {
	dir    string
	db     string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, k := range []string{
		"UNSHRED_CONFIG", "UNSHRED_LOG_LEVEL", "UNSHRED_LOG_FORMAT",
		"UNSHRED_STRIPS", "UNSHRED_WORKERS", "UNSHRED_DB", "UNSHRED_HTTP_ADDR",
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	return &testEnv{
		dir:    dir,
		db:     filepath.Join(dir, "state", "runs.db"),
		config: filepath.Join(dir, "absent-config.json"),
	}
}

// run executes args against a fresh App and returns stdout and stderr.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(BuildInfo{Version: "1.2.3", BuildTime: "today", GitCommit: "abc123"},
		WithIO(strings.NewReader(stdin), &stdout, &stderr))
	full := append([]string{"--config", e.config, "--db", e.db}, args...)
	err := app.Run(context.Background(), full)
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
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

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "image-unshred 1.2.3")
	assert.Contains(t, out, "Git commit: abc123")

	out, _, err = env.run(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "Build time: today")
}

func TestShredUnshredHistory(t *testing.T) {
	env := newTestEnv(t)
	original := env.path("original.png")
	require.NoError(t, imaging.Save(original, gradientImage(32, 8)))

	out, _, err := env.run(t, "", "shred", original, env.path("shredded.png"), "--strips", "4", "--seed", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "order:")

	out, _, err = env.run(t, "", "unshred", env.path("shredded.png"), env.path("restored.png"), "-n", "4", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "strips:     4")
	assert.Contains(t, out, "seam strip:")
	assert.FileExists(t, env.path("restored.png"))

	out, _, err = env.run(t, "", "compare", original, env.path("restored.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "pixels different:")

	out, _, err = env.run(t, "", "history", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, storage.StatusShredded)
	assert.Contains(t, out, storage.StatusOK)
	assert.Contains(t, out, "shredded.png")
}

func TestUnshred_Detects(t *testing.T) {
	env := newTestEnv(t)
	flat := image.NewNRGBA(image.Rect(0, 0, 16, 4))
	for i := range flat.Pix {
		flat.Pix[i] = 0xff
	}
	require.NoError(t, imaging.Save(env.path("flat.png"), flat))

	out, _, err := env.run(t, "", "unshred", env.path("flat.png"), env.path("flat.out.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "detected:")
	assert.Contains(t, out, "strips:     1")
}

func TestUnshred_Errors(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, imaging.Save(env.path("g.png"), gradientImage(30, 4)))

	_, _, err := env.run(t, "", "unshred", env.path("g.png"), env.path("o.png"), "--strips", "4")
	assert.ErrorIs(t, err, unshred.ErrInvalidArgument)

	_, _, err = env.run(t, "", "unshred", env.path("missing.png"), env.path("o.png"), "--strips", "3")
	assert.ErrorIs(t, err, unshred.ErrPixelAcquisition)

	_, _, err = env.run(t, "", "unshred", env.path("g.png"))
	assert.Error(t, err, "two arguments are required")

	_, _, err = env.run(t, "", "shred", env.path("g.png"), env.path("o.png"))
	assert.Error(t, err, "--strips is required")
}

func TestDetect(t *testing.T) {
	env := newTestEnv(t)
	shredded, _, err := imaging.Shred(gradientImage(48, 6), 6, 2)
	require.NoError(t, err)
	require.NoError(t, imaging.Save(env.path("s.png"), shredded))

	out, _, err := env.run(t, "", "detect", env.path("s.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "strips:")
	assert.Contains(t, out, "CONTRAST")
}

func TestServe(t *testing.T) {
	env := newTestEnv(t)
	in := `{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n"

	out, _, err := env.run(t, in, "serve")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"version":"1.2.3"`)
}

func TestWatch_StopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	in, outDir := env.path("in"), env.path("out")
	require.NoError(t, os.MkdirAll(in, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	app := NewApp(BuildInfo{Version: "dev"}, WithIO(strings.NewReader(""), &stdout, &stderr))
	err := app.Run(ctx, []string{"--config", env.config, "--no-history", "watch", in, outDir})
	require.NoError(t, err)
	assert.DirExists(t, outDir)
}

func TestHistory_Disabled(t *testing.T) {
	env := newTestEnv(t)
	var stdout, stderr bytes.Buffer
	app := NewApp(BuildInfo{}, WithIO(strings.NewReader(""), &stdout, &stderr))
	err := app.Run(context.Background(), []string{"--config", env.config, "--no-history", "history"})
	assert.ErrorContains(t, err, "disabled")
}

func TestConfigFile(t *testing.T) {
	env := newTestEnv(t)
	cfg := `{"unshred": {"strips": 4, "auto_detect": false}, "logging": {"level": "debug"}}`
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o644))
	require.NoError(t, imaging.Save(env.path("g.png"), gradientImage(32, 8)))

	// strips come from the config file
	out, errOut, err := env.run(t, "", "unshred", env.path("g.png"), env.path("o.png"))
	require.NoError(t, err)
	assert.Contains(t, out, "strips:     4")
	assert.NotContains(t, out, "detected:")
	assert.Contains(t, errOut, "level=DEBUG", "debug logging from the config file")

	// and explicit 0 with detection disabled is refused
	_, _, err = env.run(t, "", "unshred", env.path("g.png"), env.path("o.png"), "--strips", "0")
	assert.ErrorIs(t, err, unshred.ErrInvalidArgument)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "2 0 1", formatOrder(unshred.StripOrder{2, 0, 1}))
	assert.Equal(t, "", formatOrder(nil))
	assert.Equal(t, "abcdefgh", shortID("abcdefgh-1234"))
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "", fileSize("/does/not/exist"))
}
