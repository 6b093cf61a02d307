package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRegistry_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.yaml")
	writeManifest(t, path, validManifest)

	r := NewRegistry(path, []string{"help", "status"})
	n, err := r.Reload()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	h, ok := r.GetHandler("hello")
	require.True(t, ok)
	assert.Equal(t, "Says hello", h.Description)

	writeManifest(t, path, "handlers:\n  - name: help\n    kind: reply\n    reply: hijack\n")
	n, err = r.Reload()
	require.Error(t, err)
	var merr *ManifestError
	assert.True(t, errors.As(err, &merr))
	assert.Equal(t, 4, n)
	_, ok = r.GetHandler("hello")
	assert.True(t, ok, "previous plugins stay loaded")

	writeManifest(t, path, "handlers: [")
	_, err = r.Reload()
	require.Error(t, err)
	assert.Equal(t, 4, r.Count())
}

func TestRegistry_ListSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.yaml")
	writeManifest(t, path, validManifest)
	r := NewRegistry(path, nil)
	_, err := r.Reload()
	require.NoError(t, err)

	var names []string
	for _, h := range r.List() {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"hello", "poem", "uptime_report", "weather"}, names)
}

func TestRegistry_MissingManifestIsEmpty(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "none.yaml"), nil)
	n, err := r.Reload()
	require.NoError(t, err)
	assert.Zero(t, n)
}
