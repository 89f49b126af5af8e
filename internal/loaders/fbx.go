package loaders

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

// Binary FBX layout constants. The magic is 21 bytes followed by 0x1A 0x00
// and a uint32 version; node records use 32-bit offsets before version 7500
// and 64-bit offsets from 7500 on.
var fbxMagic = []byte("Kaydara FBX Binary  \x00")

const (
	fbxHeaderSize = 27

	// Upper bound on how much larger a property array may be than the file
	// that carries it.
	fbxMaxArrayExpansion = 1040
)

type fbxNode struct {
	name       string
	properties []interface{}
	children   []*fbxNode
}

type fbxReader struct {
	data   []byte
	offset int
	wide   bool // 64-bit node offsets (version >= 7500)
}

// parseFBX reads a binary FBX file far enough to extract geometry: every
// Objects/Geometry node's Vertices and PolygonVertexIndex arrays. ASCII FBX
// and features beyond plain polygon geometry (skinning, animation, embedded
// media) are rejected or ignored.
func parseFBX(data []byte) (*models.Asset, error) {
	if len(data) < fbxHeaderSize || !bytes.Equal(data[:len(fbxMagic)], fbxMagic) {
		return nil, fbxError("missing binary FBX magic (ASCII FBX is not supported)")
	}
	version := binary.LittleEndian.Uint32(data[23:27])
	r := &fbxReader{data: data, offset: fbxHeaderSize, wide: version >= 7500}

	var objects *fbxNode
	for {
		node, err := r.readNode()
		if err != nil {
			return nil, err
		}
		if node == nil {
			break
		}
		if node.name == "Objects" {
			objects = node
			break
		}
	}
	if objects == nil {
		return nil, fbxError("no Objects node found")
	}

	root := &models.Node{Name: "root"}
	for gi, child := range objects.children {
		if child.name != "Geometry" && child.name != "Model" {
			continue
		}
		mesh, err := buildFBXGeometry(child)
		if err != nil {
			return nil, err
		}
		if mesh == nil {
			continue
		}
		name := fbxNodeName(child)
		if name == "" {
			name = fmt.Sprintf("geometry_%d", gi)
		}
		root.Children = append(root.Children, &models.Node{Name: name, Mesh: mesh})
	}
	if len(root.Children) == 0 {
		return nil, fbxError("no polygon geometry found")
	}
	return models.NewAsset("fbx", "", root), nil
}

// buildFBXGeometry converts one Geometry node's vertex and polygon arrays
// into an indexed triangle mesh. Returns nil for nodes without geometry.
func buildFBXGeometry(geom *fbxNode) (*models.Mesh, error) {
	var vertices []float64
	var polygons []int32
	for _, child := range geom.children {
		switch child.name {
		case "Vertices":
			if len(child.properties) > 0 {
				if arr, ok := child.properties[0].([]float64); ok {
					vertices = arr
				}
			}
		case "PolygonVertexIndex":
			if len(child.properties) > 0 {
				if arr, ok := child.properties[0].([]int32); ok {
					polygons = arr
				}
			}
		}
	}
	if len(vertices) == 0 || len(polygons) == 0 {
		return nil, nil
	}
	if len(vertices)%3 != 0 {
		return nil, fbxError("vertex array length is not a multiple of 3")
	}

	mesh := &models.Mesh{
		Positions: make([]math3d.Vec3, len(vertices)/3),
		Material:  models.DefaultMaterial(),
	}
	for i := range mesh.Positions {
		mesh.Positions[i] = math3d.Vec3{X: vertices[i*3], Y: vertices[i*3+1], Z: vertices[i*3+2]}
	}

	// Polygon streams end each polygon with a bitwise-negated index.
	var polygon []uint32
	for _, raw := range polygons {
		idx := raw
		last := false
		if idx < 0 {
			idx = ^idx
			last = true
		}
		if int(idx) >= len(mesh.Positions) {
			return nil, fbxError(fmt.Sprintf("polygon index %d out of range", idx))
		}
		polygon = append(polygon, uint32(idx))
		if last {
			mesh.Indices = fanTriangulate(mesh.Indices, polygon)
			polygon = polygon[:0]
		}
	}
	if len(mesh.Indices) == 0 {
		return nil, nil
	}
	ensureNormals(mesh)
	return mesh, nil
}

// fbxNodeName extracts the "Name::Class" string property of an object node.
func fbxNodeName(node *fbxNode) string {
	for _, p := range node.properties {
		if s, ok := p.(string); ok {
			if i := bytes.IndexByte([]byte(s), 0); i > 0 {
				return s[:i]
			}
			return s
		}
	}
	return ""
}

// readNode reads one node record at the current offset, recursing into its
// children. A null record (all-zero header) returns nil.
func (r *fbxReader) readNode() (*fbxNode, error) {
	endOffset, err := r.readOffset()
	if err != nil {
		return nil, err
	}
	numProps, err := r.readOffset()
	if err != nil {
		return nil, err
	}
	if _, err := r.readOffset(); err != nil { // property list byte length
		return nil, err
	}
	nameLen, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if endOffset == 0 {
		return nil, nil // null record: end of a child list
	}
	name, err := r.readBytes(int(nameLen))
	if err != nil {
		return nil, err
	}

	node := &fbxNode{name: string(name)}
	for i := uint64(0); i < numProps; i++ {
		prop, err := r.readProperty()
		if err != nil {
			return nil, err
		}
		node.properties = append(node.properties, prop)
	}
	for uint64(r.offset) < endOffset {
		child, err := r.readNode()
		if err != nil {
			return nil, err
		}
		if child == nil {
			break
		}
		node.children = append(node.children, child)
	}
	if uint64(r.offset) < endOffset {
		r.offset = int(endOffset)
	}
	return node, nil
}

func (r *fbxReader) readProperty() (interface{}, error) {
	code, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch code {
	case 'Y':
		b, err := r.readBytes(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(b)), nil
	case 'C':
		b, err := r.readByte()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case 'I':
		b, err := r.readBytes(4)
		if err != nil {
			return nil, err
		}
		return int32(binary.LittleEndian.Uint32(b)), nil
	case 'F':
		b, err := r.readBytes(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case 'D':
		b, err := r.readBytes(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case 'L':
		b, err := r.readBytes(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b)), nil
	case 'S', 'R':
		length, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		b, err := r.readBytes(int(length))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case 'f', 'd', 'l', 'i', 'b':
		return r.readArrayProperty(code)
	default:
		return nil, fbxError(fmt.Sprintf("unknown property type %q", code))
	}
}

func (r *fbxReader) readArrayProperty(code byte) (interface{}, error) {
	count, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	encoding, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	compressedLen, err := r.readUint32()
	if err != nil {
		return nil, err
	}

	elemSize := map[byte]int{'f': 4, 'd': 8, 'l': 8, 'i': 4, 'b': 1}[code]
	// Deflate cannot expand past roughly 1032:1, so a declared array larger
	// than this bound can never be satisfied by the remaining input.
	if int64(count)*int64(elemSize) > int64(len(r.data))*fbxMaxArrayExpansion {
		return nil, fbxError(fmt.Sprintf("array of %d elements exceeds input size", count))
	}
	var raw []byte
	if encoding == 1 {
		compressed, err := r.readBytes(int(compressedLen))
		if err != nil {
			return nil, err
		}
		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, fbxError(fmt.Sprintf("bad zlib array: %v", err))
		}
		defer zr.Close()
		raw = make([]byte, int(count)*elemSize)
		if _, err := io.ReadFull(zr, raw); err != nil {
			return nil, fbxError(fmt.Sprintf("short zlib array: %v", err))
		}
	} else {
		raw, err = r.readBytes(int(count) * elemSize)
		if err != nil {
			return nil, err
		}
	}

	switch code {
	case 'd':
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return out, nil
	case 'f':
		out := make([]float64, count)
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
		return out, nil
	case 'i':
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return out, nil
	case 'l':
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return out, nil
	default: // 'b'
		out := make([]bool, count)
		for i := range out {
			out[i] = raw[i] != 0
		}
		return out, nil
	}
}

func (r *fbxReader) readOffset() (uint64, error) {
	if r.wide {
		b, err := r.readBytes(8)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b), nil
	}
	v, err := r.readUint32()
	return uint64(v), err
}

func (r *fbxReader) readUint32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *fbxReader) readByte() (byte, error) {
	if r.offset >= len(r.data) {
		return 0, fbxError("unexpected end of file")
	}
	b := r.data[r.offset]
	r.offset++
	return b, nil
}

func (r *fbxReader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.offset+n > len(r.data) {
		return nil, fbxError("unexpected end of file")
	}
	b := r.data[r.offset : r.offset+n]
	r.offset = r.offset + n
	return b, nil
}

func fbxError(detail string) error {
	return &models.ParseError{Kind: models.LoaderKindFBX, Detail: detail}
}
