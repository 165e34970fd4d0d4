package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatePathDisambiguatesCollisions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	first := store.AllocatePath("report.pdf")
	assert.Equal(t, filepath.Join(dir, "report.pdf"), first)
	require.NoError(t, os.WriteFile(first, []byte("a"), 0o644))

	second := store.AllocatePath("report.pdf")
	assert.Equal(t, filepath.Join(dir, "report (1).pdf"), second)
	require.NoError(t, os.WriteFile(second, []byte("b"), 0o644))

	third := store.AllocatePath("report.pdf")
	assert.Equal(t, filepath.Join(dir, "report (2).pdf"), third)
}

func TestWriteStreamHashesWhileWriting(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	payload := []byte("streamed payload content")
	path := store.AllocatePath("data.bin")
	hash, n, err := store.WriteStream(path, bytes.NewReader(payload))
	require.NoError(t, err)

	expected := sha256.Sum256(payload)
	assert.Equal(t, hex.EncodeToString(expected[:]), hash)
	assert.Equal(t, int64(len(payload)), n)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, onDisk)
}

func TestWriteFileReturnsHash(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	payload := []byte("buffered content")
	path := store.AllocatePath("doc.txt")
	hash, err := store.WriteFile(path, payload)
	require.NoError(t, err)

	expected := sha256.Sum256(payload)
	assert.Equal(t, hex.EncodeToString(expected[:]), hash)
	assert.True(t, store.Exists(path))

	require.NoError(t, store.Remove(path))
	assert.False(t, store.Exists(path))
	// removing twice is not an error
	require.NoError(t, store.Remove(path))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "a_b.txt", SanitizeName("a/b.txt", "fid"))
	assert.Equal(t, "a_b", SanitizeName(`a\b`, "fid"))
	assert.Equal(t, "fid", SanitizeName("", "fid"))
	assert.Equal(t, "fid", SanitizeName("  ", "fid"))
	assert.Equal(t, "plain.txt", SanitizeName("plain.txt", "fid"))
}
