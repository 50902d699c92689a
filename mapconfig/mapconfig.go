// Package mapconfig loads the persisted map-metadata format described
// in the interface spec: a YAML key/value file naming a raster image
// plus the resolution, origin pose, and occupancy thresholds needed to
// turn it into a grid.OccupancyMap. The image path is resolved
// relative to the metadata file's own directory.
package mapconfig

import (
	"image"
	"image/color"
	_ "image/jpeg" // registers the jpeg decoder with image.Decode
	_ "image/png"  // registers the png decoder with image.Decode
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/l1212s/spqrel-navigation/grid"
)

// Metadata mirrors the map_server-style YAML format: image, resolution,
// origin=[x,y,theta], occupied_thresh, free_thresh, negate.
type Metadata struct {
	Image          string     `yaml:"image"`
	Resolution     float64    `yaml:"resolution"`
	Origin         [3]float64 `yaml:"origin"`
	OccupiedThresh float64    `yaml:"occupied_thresh"`
	FreeThresh     float64    `yaml:"free_thresh"`
	Negate         int        `yaml:"negate"`
}

// ReadMetadata parses a map-metadata file without touching the image.
func ReadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading map metadata")
	}
	var meta Metadata
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return nil, errors.Wrap(err, "parsing map metadata")
	}
	return &meta, nil
}

// Load reads the metadata file at path, decodes its referenced image,
// and builds the OccupancyMap it describes. Pixel intensities are
// interpreted as occupancy probabilities according to Negate: when
// Negate is 0, dark pixels mean occupied (typical of scanned maps);
// when non-zero, the convention is inverted.
func Load(path string) (*grid.OccupancyMap, error) {
	meta, err := ReadMetadata(path)
	if err != nil {
		return nil, err
	}
	return Build(meta, filepath.Dir(path))
}

// Build turns already-parsed Metadata into an OccupancyMap, resolving
// its image path relative to baseDir.
func Build(meta *Metadata, baseDir string) (*grid.OccupancyMap, error) {
	imgPath := meta.Image
	if !filepath.IsAbs(imgPath) {
		imgPath = filepath.Join(baseDir, imgPath)
	}
	f, err := os.Open(imgPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening map image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "decoding map image")
	}

	pixel, rows, cols := rasterize(img, meta.Negate != 0)

	params := grid.Params{
		Resolution:        meta.Resolution,
		Origin:            grid.NewPose2D(meta.Origin[0], meta.Origin[1], meta.Origin[2]),
		OccupiedThreshold: meta.OccupiedThresh,
		FreeThreshold:     meta.FreeThresh,
	}
	occ, err := grid.NewOccupancyMap(pixel, rows, cols, params)
	if err != nil {
		return nil, errors.Wrap(err, "building occupancy map")
	}
	return occ, nil
}

// rasterize converts img into a row-major occupancy-intensity raster
// with row 0 at the bottom of the map, reversing image.Image's
// top-down scanline order to match the map-origin convention (the
// origin names the world pose of the bottom-left cell).
func rasterize(img image.Image, negate bool) ([]byte, int, int) {
	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	pixel := make([]byte, rows*cols)
	for y := 0; y < rows; y++ {
		srcY := bounds.Min.Y + y
		destRow := rows - 1 - y // flip: image row 0 (top) -> grid row rows-1 (top of a bottom-up grid)
		for x := 0; x < cols; x++ {
			gray := color.GrayModel.Convert(img.At(bounds.Min.X+x, srcY)).(color.Gray).Y
			intensity := gray
			if !negate {
				intensity = 255 - gray
			}
			pixel[destRow*cols+x] = intensity
		}
	}
	return pixel, rows, cols
}
