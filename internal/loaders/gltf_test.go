package loaders

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/prism/internal/models"
)

// gltfTriangleJSON builds a glTF 2.0 document with one triangle in an
// embedded data-URI buffer.
func gltfTriangleJSON(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian,
		[]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}))
	b64 := base64.StdEncoding.EncodeToString(buf.Bytes())

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}],
  "bufferViews": [{"buffer": 0, "byteOffset": 0, "byteLength": %d}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0,0,0], "max": [1,1,0]}],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}}]}]
}`, buf.Len(), b64, buf.Len())
	return []byte(doc)
}

func TestParseGLTFEmbeddedTriangle(t *testing.T) {
	asset, err := parseGLTF(gltfTriangleJSON(t))
	require.NoError(t, err)

	assert.Equal(t, 1, asset.TriangleCount())
	require.Len(t, asset.Root.Children, 1)
	assert.Equal(t, "tri", asset.Root.Children[0].Name)
	asset.EachMesh(func(m *models.Mesh) {
		assert.Len(t, m.Positions, 3)
		// Sequential indices are synthesized for non-indexed primitives.
		assert.Equal(t, []uint32{0, 1, 2}, m.Indices)
		assert.Len(t, m.Normals, 3)
	})
}

func TestParseGLTFInvalidDocument(t *testing.T) {
	_, err := parseGLTF([]byte("{not json"))
	require.Error(t, err)

	var pe *models.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.LoaderKindGLTF, pe.Kind)
}

func TestParseGLTFNoGeometry(t *testing.T) {
	_, err := parseGLTF([]byte(`{"asset": {"version": "2.0"}}`))
	require.Error(t, err)
}
