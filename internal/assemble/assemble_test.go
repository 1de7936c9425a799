package assemble

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "2.500000", formatSeconds(2.5))
	assert.Equal(t, "0.000000", formatSeconds(0))
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "concat.txt")
	require.NoError(t, writeConcatList(listPath, []string{"a.mp4", "b.mp4"}))

	data, err := os.ReadFile(listPath)
	require.NoError(t, err)
	assert.Equal(t, "file 'a.mp4'\nfile 'b.mp4'\n", string(data))
}
