package thumbnail

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

func triangleAsset() *models.Asset {
	mesh := &models.Mesh{
		Positions: []math3d.Vec3{
			{X: -1, Y: -1, Z: 0},
			{X: 1, Y: -1, Z: 0},
			{X: 0, Y: 1, Z: 0},
		},
		Indices:  []uint32{0, 1, 2},
		Material: models.DefaultMaterial(),
	}
	root := &models.Node{Name: "root", Children: []*models.Node{{Name: "tri", Mesh: mesh}}}
	return models.NewAsset("tri", "obj", root)
}

func TestCaptureProducesDataURL(t *testing.T) {
	g := NewGenerator(32, arbor.NewLogger())

	out := g.Capture(triangleAsset())
	require.True(t, strings.HasPrefix(out, "data:image/png;base64,"), "got %q", out)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "data:image/png;base64,"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}

func TestCaptureRendersGeometryPixels(t *testing.T) {
	g := NewGenerator(64, arbor.NewLogger())

	out := g.Capture(triangleAsset())
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	// At least one pixel must differ from the background, otherwise the
	// model was framed out of view.
	bg := img.At(0, 0)
	found := false
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y && !found; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.At(x, y) != bg {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "thumbnail contains no rendered geometry")
}

func TestCaptureRendersACopy(t *testing.T) {
	g := NewGenerator(32, arbor.NewLogger())

	asset := triangleAsset()
	snapshot := asset.Clone()

	require.NotEmpty(t, g.Capture(asset))
	assert.Equal(t, snapshot, asset)
}

func TestCaptureDegradesToEmptyString(t *testing.T) {
	g := NewGenerator(32, arbor.NewLogger())

	assert.Equal(t, "", g.Capture(nil))
	assert.Equal(t, "", g.Capture(models.NewAsset("empty", "obj", nil)))

	// Geometry with no extent cannot be framed.
	flat := models.NewAsset("point", "obj", &models.Node{
		Mesh: &models.Mesh{
			Positions: []math3d.Vec3{{X: 1, Y: 1, Z: 1}},
			Indices:   []uint32{0, 0, 0},
		},
	})
	assert.Equal(t, "", g.Capture(flat))
}

func TestNewGeneratorDefaultSize(t *testing.T) {
	g := NewGenerator(0, arbor.NewLogger())
	assert.Equal(t, DefaultSize, g.size)
}
