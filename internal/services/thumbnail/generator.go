// Package thumbnail renders small preview images of assets for the history
// list. Rendering is pure software so capture works headless.
package thumbnail

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"math"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/common"
	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

const (
	DefaultSize = 96

	// Rendering runs at a multiple of the output size and downscales for
	// cheap antialiasing.
	supersample = 2

	captureFOV = math.Pi / 4
)

// Generator renders asset previews as data-URL encoded PNGs.
type Generator struct {
	size   int
	logger arbor.ILogger
}

// NewGenerator creates a generator producing size x size thumbnails.
func NewGenerator(size int, logger arbor.ILogger) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Generator{size: size, logger: logger}
}

// Capture renders asset and returns a "data:image/png;base64," URL. Capture
// never fails: any problem degrades to an empty string so history recording
// proceeds without a preview.
func (g *Generator) Capture(asset *models.Asset) (out string) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn().Msgf("thumbnail capture panicked: %v", r)
			out = ""
		}
	}()

	if asset == nil || asset.Root == nil {
		return ""
	}
	// Render a private copy so capture never races with the live scene.
	asset = asset.Clone()

	box := asset.BoundingBox()
	if box.IsEmpty() {
		return ""
	}

	center := box.Center()
	maxDim := box.MaxDimension()
	if maxDim <= 0 {
		return ""
	}
	distance := maxDim / math.Sin(captureFOV/2) * 1.1
	eye := center.Add(math3d.Vec3{X: 0.6, Y: 0.5, Z: 1.0}.Normalized().Scale(distance))
	view := math3d.LookAt(eye, center, math3d.Vec3{Y: 1})

	raster := newRaster(g.size*supersample, g.size*supersample)
	raster.renderAsset(asset, view, captureFOV)
	img := raster.downscale(g.size)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		g.logger.Warn().Err(err).Msg("thumbnail encode failed")
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
