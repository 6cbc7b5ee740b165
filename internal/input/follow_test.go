package input

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/pdd/internal/testutil"
)

func openFollower(t *testing.T, ctx context.Context, path string) *Follower {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	fl := NewFollower(ctx, f, testInputConfig(), testutil.NewTestLogger())
	t.Cleanup(func() { fl.Close() })
	return fl
}

func appendTo(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFollower_ReadsAppendedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	require.NoError(t, os.WriteFile(path, []byte("line 1\n"), 0o644))

	fl := openFollower(t, context.Background(), path)

	buf := make([]byte, 64)
	n, err := fl.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "line 1\n", string(buf[:n]))

	go func() {
		time.Sleep(50 * time.Millisecond)
		appendTo(t, path, "line 2\n")
	}()

	n, err = fl.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "line 2\n", string(buf[:n]))
}

func TestFollower_IdleTimeoutEndsInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	require.NoError(t, os.WriteFile(path, []byte("only line\n"), 0o644))

	fl := openFollower(t, context.Background(), path)

	start := time.Now()
	data, err := io.ReadAll(fl)
	require.NoError(t, err)
	assert.Equal(t, "only line\n", string(data))
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
}

func TestFollower_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	fl := openFollower(t, ctx, path)

	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := fl.Read(make([]byte, 16))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFollower_Truncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	fl := openFollower(t, context.Background(), path)

	buf := make([]byte, 64)
	n, err := fl.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	// Truncate and write less than what was already read.
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	n, err = fl.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))
}

func TestFollower_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	fl := openFollower(t, context.Background(), path)

	buf := make([]byte, 64)
	n, err := fl.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "old", string(buf[:n]))

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.Rename(path, path+".1")
		_ = os.WriteFile(path, []byte("new file"), 0o644)
	}()

	n, err = fl.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "new file", string(buf[:n]))
}

func TestFollower_RotationDrainsOldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout.log")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	fl := openFollower(t, context.Background(), path)

	buf := make([]byte, 64)
	n, err := fl.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "a", string(buf[:n]))

	// The writer keeps its handle across the rename, like a logger that
	// has not noticed the rotation yet.
	w, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer w.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.Rename(path, path+".1")
		_, _ = w.WriteString("bc")
		_ = os.WriteFile(path, []byte("new"), 0o644)
	}()

	var got []byte
	for len(got) < len("bcnew") {
		n, err := fl.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, "bcnew", string(got))
}
