package web

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticContainsClient(t *testing.T) {
	fsys := Static()
	for _, name := range []string{"index.html", "app.js", "style.css"} {
		data, err := fs.ReadFile(fsys, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestAppScriptDebounce(t *testing.T) {
	data, err := fs.ReadFile(Static(), "app.js")
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBOUNCE_MS = 450")
	assert.Contains(t, string(data), "MIN_QUERY_LENGTH = 3")
}
