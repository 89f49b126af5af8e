package loaders

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

const stlBinaryHeaderSize = 84 // 80-byte comment + uint32 triangle count

// parseSTL parses an STL body. The read contract says binary, but ASCII STL
// files are common in the wild and also start readable, so the strategy
// sniffs for the "solid" keyword and a facet statement before committing to
// the binary layout.
func parseSTL(data []byte) (*models.Asset, error) {
	if looksASCIISTL(data) {
		return parseASCIISTL(string(data))
	}
	return parseBinarySTL(data)
}

// looksASCIISTL reports whether the payload is an ASCII STL document. A
// binary STL may legally start with "solid" in its comment header, so the
// check also requires a "facet" keyword in the readable prefix.
func looksASCIISTL(data []byte) bool {
	probe := data
	if len(probe) > 512 {
		probe = probe[:512]
	}
	text := strings.TrimSpace(string(probe))
	return strings.HasPrefix(text, "solid") && strings.Contains(text, "facet")
}

func parseBinarySTL(data []byte) (*models.Asset, error) {
	if len(data) < stlBinaryHeaderSize {
		return nil, stlError("file shorter than binary STL header")
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	expected := stlBinaryHeaderSize + int(count)*50
	if len(data) < expected {
		return nil, stlError(fmt.Sprintf("truncated binary STL: %d triangles declared, %d bytes present", count, len(data)))
	}

	mesh := &models.Mesh{
		Positions: make([]math3d.Vec3, 0, count*3),
		Normals:   make([]math3d.Vec3, 0, count*3),
		Indices:   make([]uint32, 0, count*3),
	}
	offset := stlBinaryHeaderSize
	for t := uint32(0); t < count; t++ {
		normal := readVec3f32(data[offset:])
		for v := 0; v < 3; v++ {
			p := readVec3f32(data[offset+12+v*12:])
			mesh.Indices = append(mesh.Indices, uint32(len(mesh.Positions)))
			mesh.Positions = append(mesh.Positions, p)
			mesh.Normals = append(mesh.Normals, normal)
		}
		offset += 50 // 4 vectors + attribute byte count
	}
	if count == 0 {
		return nil, stlError("binary STL contains no triangles")
	}
	return wrapBareGeometry("stl", mesh), nil
}

func parseASCIISTL(text string) (*models.Asset, error) {
	mesh := &models.Mesh{}
	var normal math3d.Vec3
	var faceVerts int

	for lineNo, line := range strings.Split(text, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "facet":
			faceVerts = 0
			normal = math3d.Vec3{}
			if len(fields) >= 5 && fields[1] == "normal" {
				n, err := parseFloats3(fields[2:5])
				if err != nil {
					return nil, stlError(fmt.Sprintf("line %d: %v", lineNo+1, err))
				}
				normal = n
			}
		case "vertex":
			p, err := parseFloats3(fields[1:])
			if err != nil {
				return nil, stlError(fmt.Sprintf("line %d: %v", lineNo+1, err))
			}
			mesh.Indices = append(mesh.Indices, uint32(len(mesh.Positions)))
			mesh.Positions = append(mesh.Positions, p)
			mesh.Normals = append(mesh.Normals, normal)
			faceVerts++
			if faceVerts > 3 {
				return nil, stlError(fmt.Sprintf("line %d: facet with more than 3 vertices", lineNo+1))
			}
		}
	}
	if len(mesh.Positions) == 0 || len(mesh.Positions)%3 != 0 {
		return nil, stlError("ASCII STL contains no complete facets")
	}
	return wrapBareGeometry("stl", mesh), nil
}

func readVec3f32(b []byte) math3d.Vec3 {
	return math3d.Vec3{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:4]))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:8]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:12]))),
	}
}

func stlError(detail string) error {
	return &models.ParseError{Kind: models.LoaderKindSTL, Detail: detail}
}
