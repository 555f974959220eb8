package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_SaveAndGet(t *testing.T) {
	s := newLocalStorage(t)

	content := "%PDF-1.4 pretend document"
	info, err := s.Save(strings.NewReader(content), "report.pdf")
	require.NoError(t, err)

	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "report.pdf", info.Name)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, "application/pdf", info.MimeType)
	assert.NotEmpty(t, info.Path)

	reader, err := s.Get(info.ID)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestLocalStorage_GetMissing(t *testing.T) {
	s := newLocalStorage(t)

	_, err := s.Get("no-such-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorage_Exists(t *testing.T) {
	s := newLocalStorage(t)

	info, err := s.Save(strings.NewReader("image bytes"), "scan.png")
	require.NoError(t, err)

	exists, err := s.Exists(info.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists("no-such-id")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_Delete(t *testing.T) {
	s := newLocalStorage(t)

	info, err := s.Save(strings.NewReader("bytes"), "scan.jpg")
	require.NoError(t, err)

	require.NoError(t, s.Delete(info.ID))

	exists, err := s.Exists(info.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.Delete(info.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorage_List(t *testing.T) {
	s := newLocalStorage(t)

	_, err := s.Save(strings.NewReader("one"), "a.pdf")
	require.NoError(t, err)
	_, err = s.Save(strings.NewReader("two"), "b.png")
	require.NoError(t, err)

	files, err := s.List()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report.pdf", "application/pdf"},
		{"scan.JPG", "image/jpeg"},
		{"photo.png", "image/png"},
		{"page.tiff", "image/tiff"},
		{"notes.txt", "text/plain"},
		{"blob.bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, getMimeType(tt.filename), "filename %q", tt.filename)
	}
}
