package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framebridge/framebridge/internal/config"
	"github.com/framebridge/framebridge/pkg/video"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConvertPatternToFile(t *testing.T) {
	for _, storage := range []string{"owned-memory", "textures", "gpu-memory-buffer"} {
		storage := storage
		t.Run(storage, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "frames.i420")
			out, err := execute(t, "convert",
				"--format", "yuy2", "--width", "33", "--height", "17",
				"--storage", storage, "--frames", "7", "--workers", "3",
				"--out", path)
			require.NoError(t, err)
			assert.Contains(t, out, "converted 7 frames, skipped 0")

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Len(t, data, 7*video.I420Size(33, 17))
		})
	}
}

func TestConvertOrderIsStable(t *testing.T) {
	dir := t.TempDir()
	var files [][]byte
	for _, workers := range []string{"1", "4"} {
		path := filepath.Join(dir, "w"+workers)
		_, err := execute(t, "convert", "--format", "NV12", "--width", "16", "--height", "8",
			"--frames", "12", "--workers", workers, "--out", path)
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		files = append(files, data)
	}
	assert.Equal(t, files[0], files[1])
}

func TestConvertWithUnavailableSink(t *testing.T) {
	t.Setenv("FRAMEBRIDGE_SINK_LIB", "")
	cfgPath := filepath.Join(t.TempDir(), "framebridge.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[sink]
symbol = "MissingSendFrame"
search_paths = ["/nonexistent/liboverlay.so"]
`), 0o600))

	out, err := execute(t, "--config", cfgPath, "convert", "--frames", "2", "--width", "8", "--height", "8", "--pid", "1234")
	require.NoError(t, err)
	assert.Contains(t, out, "converted 2 frames")
}

func TestConvertInvalidOptions(t *testing.T) {
	cases := map[string][]string{
		"UnknownSource":  {"convert", "--source", "tape"},
		"UnknownFormat":  {"convert", "--format", "P010"},
		"UnknownStorage": {"convert", "--storage", "disk"},
		"NoWorkers":      {"convert", "--workers", "0"},
		"BadSize":        {"convert", "--width", "0"},
		"BadLogLevel":    {"--log-level", "loud", "convert"},
		"ZeroFPS":        {"convert", "--fps", "0"},
		"NegativeFPS":    {"convert", "--fps=-24"},
	}
	for name, args := range cases {
		args := args
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}

type failingFile struct {
	bytes.Buffer
	writeErr, closeErr error
	closed             bool
}

func (f *failingFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.Buffer.Write(p)
}

func (f *failingFile) Close() error {
	f.closed = true
	return f.closeErr
}

func TestOutputClose(t *testing.T) {
	errDisk := errors.New("disk full")
	errClose := errors.New("stale handle")

	t.Run("Flushes", func(t *testing.T) {
		f := &failingFile{}
		o := newOutput(f)
		_, err := o.Write([]byte("frame"))
		require.NoError(t, err)
		assert.Zero(t, f.Len())
		require.NoError(t, o.Close())
		assert.Equal(t, "frame", f.String())
		assert.True(t, f.closed)
	})
	t.Run("FlushError", func(t *testing.T) {
		f := &failingFile{writeErr: errDisk, closeErr: errClose}
		o := newOutput(f)
		_, err := o.Write([]byte("frame"))
		require.NoError(t, err)
		assert.ErrorIs(t, o.Close(), errDisk)
		assert.True(t, f.closed)
	})
	t.Run("CloseError", func(t *testing.T) {
		f := &failingFile{closeErr: errClose}
		assert.ErrorIs(t, newOutput(f).Close(), errClose)
	})
}

func TestConvertOutputErrors(t *testing.T) {
	t.Run("MissingDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "frames.i420")
		out, err := execute(t, "convert", "--frames", "1", "--width", "8", "--height", "8", "--out", path)
		assert.Error(t, err)
		assert.NotContains(t, out, "converted")
	})
	t.Run("DeviceFull", func(t *testing.T) {
		f, err := os.OpenFile("/dev/full", os.O_WRONLY, 0)
		if err != nil {
			t.Skip("/dev/full is not available")
		}
		f.Close()

		// Two small frames stay in the write buffer until the final flush.
		out, err := execute(t, "convert", "--frames", "2", "--width", "16", "--height", "8", "--out", "/dev/full")
		assert.Error(t, err)
		assert.NotContains(t, out, "converted")
	})
}

func TestLogLevelFlagOverridesConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "framebridge.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level = \"loud\"\n"), 0o600))

	_, err := execute(t, "--config", cfgPath, "inspect", "--width", "4", "--height", "2")
	assert.Error(t, err)

	out, err := execute(t, "--config", cfgPath, "--log-level", "warn", "inspect", "--width", "4", "--height", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Width 4\n")
}

func TestInspect(t *testing.T) {
	out, err := execute(t, "inspect", "--format", "uyvy", "--width", "5", "--height", "3",
		"--storage", "textures", "--memoize")
	require.NoError(t, err)

	for _, line := range []string{
		"Format UYVY",
		"Storage type textures",
		"HasTextures true",
		"Width 5",
		"Height 3",
		"I420 view shared true",
		"I420 plane 1 stride 3 rows 2 row bytes 3",
	} {
		assert.True(t, strings.Contains(out, line+"\n"), "missing %q in\n%s", line, out)
	}
}

func TestInspectZeroCopy(t *testing.T) {
	var out bytes.Buffer
	opts := &sourceOptions{kind: "pattern", format: "i420", width: 4, height: 2, storage: "owned-memory", fps: 30}
	require.NoError(t, runInspect(&out, config.Default(), opts, false))
	assert.Contains(t, out.String(), "I420 view shared false\n")
	assert.Contains(t, out.String(), "I420 plane 0 stride 4 rows 2 row bytes 4\n")
}
