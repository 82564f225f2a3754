package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreSaveAndLocate(t *testing.T) {
	dir := t.TempDir()
	s, err := NewService(context.Background(), ServiceConfig{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "local", s.Backend())

	require.NoError(t, s.Save(context.Background(), "cat.png", strings.NewReader("meow"), 4, "image/png"))

	dl, err := s.Locate(context.Background(), "cat.png")
	require.NoError(t, err)
	assert.Empty(t, dl.URL)
	assert.Equal(t, filepath.Join(dir, "cat.png"), dl.Path)
	assert.Equal(t, "image/png", dl.ContentType)

	content, err := os.ReadFile(dl.Path)
	require.NoError(t, err)
	assert.Equal(t, "meow", string(content))
}

func TestLocalStoreOverwrites(t *testing.T) {
	s, err := newLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "a.txt", strings.NewReader("one"), 3, ""))
	require.NoError(t, s.Save(context.Background(), "a.txt", strings.NewReader("two"), 3, ""))

	dl, err := s.Locate(context.Background(), "a.txt")
	require.NoError(t, err)
	content, err := os.ReadFile(dl.Path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(content))

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestLocalStoreLocateMissing(t *testing.T) {
	s, err := newLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Locate(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Locate(context.Background(), "..")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestLocalStoreRequiresDir(t *testing.T) {
	_, err := newLocalStore("")
	assert.Error(t, err)
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"photo.jpg", "photo.jpg", false},
		{"../../etc/passwd", "passwd", false},
		{`C:\Users\me\report.pdf`, "report.pdf", false},
		{"dir/", "dir", false},
		{"", "", true},
		{"..", "", true},
		{".", "", true},
		{"/", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := CleanName(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
