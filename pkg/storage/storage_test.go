package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	return NewManager(NewLocator(dir, false), nil), dir
}

func TestLocatorUsesOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom")
	loc := NewLocator(dir, false)

	got, err := loc.BaseDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocatorServerlessUsesTempRoot(t *testing.T) {
	loc := NewLocator("", true)

	got, err := loc.BaseDir()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, os.TempDir()))
	assert.True(t, loc.Serverless())
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cats", "cats"},
		{"a/b:c", "a_b_c"},
		{`<>:"/\|?*`, "_________"},
		{"  spaced out  ", "spaced out"},
		{"cats & dogs", "cats & dogs"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeQuery(tt.in), "input %q", tt.in)
	}
}

func TestResolveQueryFolderIsIdempotent(t *testing.T) {
	base := t.TempDir()

	first, err := ResolveQueryFolder(base, "cats & dogs")
	require.NoError(t, err)

	second, err := ResolveQueryFolder(base, "cats & dogs")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolveQueryFolderSanitizes(t *testing.T) {
	base := t.TempDir()

	dir, err := ResolveQueryFolder(base, "a/b:c")
	require.NoError(t, err)

	name := filepath.Base(dir)
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, ":")
}

func TestSaveImageAndReadAsset(t *testing.T) {
	m, _ := newTestManager(t)

	dir, err := m.QueryDir("cats")
	require.NoError(t, err)

	// A real PNG header makes DetectContentType return image/png
	payload := []byte("\x89PNG\r\n\x1a\npretend image body")
	name, err := m.SaveImage(dir, 1, payload)
	require.NoError(t, err)
	assert.Equal(t, "imagem_1.jpg", name)

	data, mime, err := m.ReadAsset("imagem_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "image/png", mime)
}

func TestReadAssetNotFound(t *testing.T) {
	m, _ := newTestManager(t)
	_, _, err := m.ReadAsset("imagem_99.jpg")
	assert.Error(t, err)
}

func TestReadAssetRejectsTraversal(t *testing.T) {
	m, _ := newTestManager(t)

	for _, name := range []string{"../secret", "a/../../b", "sub/imagem_1.jpg", ""} {
		_, _, err := m.ReadAsset(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestWriteMetadataAndResolveSourceURL(t *testing.T) {
	m, _ := newTestManager(t)

	dir, err := m.QueryDir("cats")
	require.NoError(t, err)

	meta := map[string]string{"imagem_1.jpg": "https://img.example/a.jpg"}
	require.NoError(t, m.WriteMetadata(dir, meta))

	url, err := m.ResolveSourceURL("imagem_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/a.jpg", url)
}

func TestResolveSourceURLFallsBackToDisk(t *testing.T) {
	m, base := newTestManager(t)

	dir, err := m.QueryDir("cats")
	require.NoError(t, err)
	require.NoError(t, m.WriteMetadata(dir, map[string]string{
		"imagem_1.jpg": "https://img.example/a.jpg",
	}))

	// A fresh manager has a cold cache and must read the document back
	fresh := NewManager(NewLocator(base, false), nil)
	url, err := fresh.ResolveSourceURL("imagem_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/a.jpg", url)
}

func TestMetadataIsRewrittenWholesale(t *testing.T) {
	m, _ := newTestManager(t)

	dir, err := m.QueryDir("cats")
	require.NoError(t, err)

	require.NoError(t, m.WriteMetadata(dir, map[string]string{
		"imagem_1.jpg": "https://img.example/old.jpg",
		"imagem_2.jpg": "https://img.example/gone.jpg",
	}))
	require.NoError(t, m.WriteMetadata(dir, map[string]string{
		"imagem_1.jpg": "https://img.example/new.jpg",
	}))

	meta, err := readMetadataFile(filepath.Join(dir, MetadataFileName))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"imagem_1.jpg": "https://img.example/new.jpg"}, meta)
}

func TestPurgeAll(t *testing.T) {
	m, base := newTestManager(t)

	dir, err := m.QueryDir("cats")
	require.NoError(t, err)
	_, err = m.SaveImage(dir, 1, []byte("data"))
	require.NoError(t, err)
	require.NoError(t, m.WriteMetadata(dir, map[string]string{
		"imagem_1.jpg": "https://img.example/a.jpg",
	}))

	require.NoError(t, m.PurgeAll())

	_, err = os.Stat(filepath.Join(base, "cats"))
	assert.True(t, os.IsNotExist(err))

	_, _, err = m.ReadAsset("imagem_1.jpg")
	assert.Error(t, err)
	_, err = m.ResolveSourceURL("imagem_1.jpg")
	assert.Error(t, err, "purge must also drop the in-memory cache")
}

func TestPurgeAllMissingRootIsNoOp(t *testing.T) {
	m, base := newTestManager(t)
	require.NoError(t, os.RemoveAll(base))
	assert.NoError(t, m.PurgeAll())
}
