package mapconfig

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1212s/spqrel-navigation/grid"
)

func writeTestImage(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 3))
	// top row (y=0) white (free), bottom row (y=2) black (occupied)
	for x := 0; x < 4; x++ {
		img.Set(x, 0, color.Gray{Y: 255})
		img.Set(x, 1, color.Gray{Y: 255})
		img.Set(x, 2, color.Gray{Y: 0})
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadMetadataAndImage(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "map.png")
	metaPath := filepath.Join(dir, "map.yaml")
	require.NoError(t, os.WriteFile(metaPath, []byte(
		"image: map.png\n"+
			"resolution: 0.1\n"+
			"origin: [0.0, 0.0, 0.0]\n"+
			"occupied_thresh: 0.65\n"+
			"free_thresh: 0.2\n"+
			"negate: 0\n"), 0o644))

	occ, err := Load(metaPath)
	require.NoError(t, err)
	assert.Equal(t, 3, occ.Rows())
	assert.Equal(t, 4, occ.Cols())

	// image bottom row (y=2, black=occupied under negate=0) becomes grid row 0
	assert.Equal(t, grid.Occupied, occ.State(grid.Cell{Row: 0, Col: 0}))
	// image top row (y=0, white=free) becomes the top grid row
	assert.Equal(t, grid.Free, occ.State(grid.Cell{Row: 2, Col: 0}))
}

func TestImagePathRelativeToMetadataDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "maps")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeTestImage(t, sub, "room.png")
	metaPath := filepath.Join(sub, "room.yaml")
	require.NoError(t, os.WriteFile(metaPath, []byte(
		"image: room.png\nresolution: 0.05\norigin: [1.0, 2.0, 0.0]\noccupied_thresh: 0.65\nfree_thresh: 0.2\nnegate: 0\n"), 0o644))

	occ, err := Load(metaPath)
	require.NoError(t, err)
	assert.Equal(t, 0.05, occ.Resolution())
}
