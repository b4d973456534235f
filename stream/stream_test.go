package stream_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alextopher/tinysynth/stream"
)

func TestMemoryReadExact(t *testing.T) {
	src := stream.NewMemory([]byte("hello world"))

	buf := make([]byte, 5)
	n, err := src.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
}

func TestMemoryShortReadErrors(t *testing.T) {
	src := stream.NewMemory([]byte("hi"))

	buf := make([]byte, 10)
	_, err := src.Read(buf)
	require.Error(t, err)
}

func TestMemorySkip(t *testing.T) {
	src := stream.NewMemory([]byte("0123456789"))

	require.True(t, src.Skip(4))

	buf := make([]byte, 2)
	_, err := src.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "45", string(buf))

	require.False(t, src.Skip(1000))
}

func TestFileSource(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "tinysynth-stream-*")
	require.NoError(t, err)
	_, err = f.Write([]byte("abcdefgh"))
	require.NoError(t, err)
	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	defer f.Close()

	src := stream.NewFile(f)
	require.True(t, src.Skip(2))

	buf := make([]byte, 3)
	_, err = src.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "cde", string(buf))
}
