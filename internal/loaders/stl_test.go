package loaders

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/prism/internal/models"
)

// binarySTL builds a valid binary STL payload from triangles given as flat
// vertex triples.
func binarySTL(t *testing.T, triangles [][9]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(triangles))))
	for _, tri := range triangles {
		// Normal is left zeroed; the parser carries it through as-is.
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, [3]float32{}))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, tri))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))
	}
	return buf.Bytes()
}

func TestParseBinarySTL(t *testing.T) {
	data := binarySTL(t, [][9]float32{
		{0, 0, 0, 1, 0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1, 0, 0, 0, 1},
	})

	asset, err := parseSTL(data)
	require.NoError(t, err)
	assert.Equal(t, 2, asset.TriangleCount())
	asset.EachMesh(func(m *models.Mesh) {
		assert.Len(t, m.Positions, 6)
		assert.InDelta(t, 1.0, m.Positions[1].X, 1e-6)
	})
}

func TestParseBinarySTLTruncated(t *testing.T) {
	data := binarySTL(t, [][9]float32{{0, 0, 0, 1, 0, 0, 0, 1, 0}})
	_, err := parseSTL(data[:len(data)-10])
	require.Error(t, err)

	var pe *models.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.LoaderKindSTL, pe.Kind)
}

func TestParseBinarySTLTooShort(t *testing.T) {
	_, err := parseSTL(make([]byte, 40))
	require.Error(t, err)
}

const asciiSTL = `solid tri
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
endsolid tri
`

func TestParseASCIISTL(t *testing.T) {
	asset, err := parseSTL([]byte(asciiSTL))
	require.NoError(t, err)
	assert.Equal(t, 1, asset.TriangleCount())
	asset.EachMesh(func(m *models.Mesh) {
		require.Len(t, m.Normals, 3)
		assert.InDelta(t, 1.0, m.Normals[0].Z, 1e-9)
	})
}

func TestParseASCIISTLExtraVertex(t *testing.T) {
	src := `solid bad
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
      vertex 1 1 0
    endloop
  endfacet
endsolid bad
`
	_, err := parseSTL([]byte(src))
	require.Error(t, err)
}

func TestBinarySTLWithSolidHeaderIsNotMistakenForASCII(t *testing.T) {
	data := binarySTL(t, [][9]float32{{0, 0, 0, 1, 0, 0, 0, 1, 0}})
	copy(data[0:], "solid generated by exporter")

	asset, err := parseSTL(data)
	require.NoError(t, err)
	assert.Equal(t, 1, asset.TriangleCount())
}

func TestReadVec3f32(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, [3]float32{1.5, -2, float32(math.Pi)}))
	v := readVec3f32(buf.Bytes())
	assert.InDelta(t, 1.5, v.X, 1e-6)
	assert.InDelta(t, -2, v.Y, 1e-6)
	assert.InDelta(t, math.Pi, v.Z, 1e-6)
}
