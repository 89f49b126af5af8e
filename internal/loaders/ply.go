package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

// plyProperty is one declared property of a PLY element.
type plyProperty struct {
	name      string
	typ       string // scalar type, or the value type for lists
	isList    bool
	countType string
}

// plyElement is one element group (vertex, face, ...) in declaration order.
type plyElement struct {
	name       string
	count      int
	properties []plyProperty
}

var plyTypeSizes = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4, "double": 8, "float64": 8,
}

// parsePLY parses a PLY body in ascii or binary_little_endian form. Vertex
// x/y/z (plus nx/ny/nz and s/t when present) and face vertex index lists are
// consumed; other elements are skipped property-by-property.
func parsePLY(data []byte) (*models.Asset, error) {
	reader := bufio.NewReader(bytes.NewReader(data))

	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, plyError("missing ply magic")
	}

	var (
		format   string
		elements []*plyElement
	)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, plyError("header ended before end_header")
		}
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment", "obj_info":
		case "format":
			if len(fields) < 2 {
				return nil, plyError("malformed format line")
			}
			format = fields[1]
			if format != "ascii" && format != "binary_little_endian" {
				return nil, plyError(fmt.Sprintf("unsupported format %q", format))
			}
		case "element":
			if len(fields) < 3 {
				return nil, plyError("malformed element line")
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, plyError(fmt.Sprintf("bad element count %q", fields[2]))
			}
			elements = append(elements, &plyElement{name: fields[1], count: count})
		case "property":
			if len(elements) == 0 {
				return nil, plyError("property before any element")
			}
			elem := elements[len(elements)-1]
			if len(fields) >= 5 && fields[1] == "list" {
				elem.properties = append(elem.properties, plyProperty{
					name: fields[4], typ: fields[3], isList: true, countType: fields[2],
				})
			} else if len(fields) >= 3 {
				elem.properties = append(elem.properties, plyProperty{name: fields[2], typ: fields[1]})
			} else {
				return nil, plyError("malformed property line")
			}
		case "end_header":
			goto body
		default:
			return nil, plyError(fmt.Sprintf("unknown header statement %q", fields[0]))
		}
	}

body:
	if format == "" {
		return nil, plyError("header missing format line")
	}

	mesh := &models.Mesh{}
	for _, elem := range elements {
		switch elem.name {
		case "vertex":
			if err := readPLYVertices(reader, format, elem, mesh); err != nil {
				return nil, err
			}
		case "face":
			if err := readPLYFaces(reader, format, elem, mesh); err != nil {
				return nil, err
			}
		default:
			if err := skipPLYElement(reader, format, elem); err != nil {
				return nil, err
			}
		}
	}

	if len(mesh.Positions) == 0 {
		return nil, plyError("no vertices found")
	}
	if len(mesh.Indices) == 0 {
		// Point clouds are valid PLY but not renderable geometry here.
		return nil, plyError("no faces found")
	}
	if len(mesh.Normals) != len(mesh.Positions) {
		mesh.Normals = nil
	}
	if len(mesh.UVs) != len(mesh.Positions) {
		mesh.UVs = nil
	}
	ensureNormals(mesh)
	return wrapBareGeometry("ply", mesh), nil
}

func readPLYVertices(r *bufio.Reader, format string, elem *plyElement, mesh *models.Mesh) error {
	hasNormal := plyHasProps(elem, "nx", "ny", "nz")
	hasUV := plyHasProps(elem, "s", "t")

	for i := 0; i < elem.count; i++ {
		values := make(map[string]float64, len(elem.properties))
		for _, prop := range elem.properties {
			if prop.isList {
				if err := skipPLYList(r, format, prop); err != nil {
					return err
				}
				continue
			}
			v, err := readPLYScalar(r, format, prop.typ)
			if err != nil {
				return err
			}
			values[prop.name] = v
		}
		mesh.Positions = append(mesh.Positions, math3d.Vec3{X: values["x"], Y: values["y"], Z: values["z"]})
		if hasNormal {
			mesh.Normals = append(mesh.Normals, math3d.Vec3{X: values["nx"], Y: values["ny"], Z: values["nz"]})
		}
		if hasUV {
			mesh.UVs = append(mesh.UVs, math3d.Vec2{X: values["s"], Y: values["t"]})
		}
	}
	return nil
}

func readPLYFaces(r *bufio.Reader, format string, elem *plyElement, mesh *models.Mesh) error {
	for i := 0; i < elem.count; i++ {
		for _, prop := range elem.properties {
			if !prop.isList {
				if _, err := readPLYScalar(r, format, prop.typ); err != nil {
					return err
				}
				continue
			}
			count, err := readPLYScalar(r, format, prop.countType)
			if err != nil {
				return err
			}
			n := int(count)
			if n < 0 || n > 255 {
				return plyError(fmt.Sprintf("implausible face vertex count %d", n))
			}
			polygon := make([]uint32, 0, n)
			for v := 0; v < n; v++ {
				idx, err := readPLYScalar(r, format, prop.typ)
				if err != nil {
					return err
				}
				if idx < 0 || int(idx) >= len(mesh.Positions) {
					return plyError(fmt.Sprintf("face index %d out of range", int(idx)))
				}
				polygon = append(polygon, uint32(idx))
			}
			if prop.name == "vertex_indices" || prop.name == "vertex_index" {
				mesh.Indices = fanTriangulate(mesh.Indices, polygon)
			}
		}
	}
	return nil
}

func skipPLYElement(r *bufio.Reader, format string, elem *plyElement) error {
	for i := 0; i < elem.count; i++ {
		for _, prop := range elem.properties {
			if prop.isList {
				if err := skipPLYList(r, format, prop); err != nil {
					return err
				}
			} else if _, err := readPLYScalar(r, format, prop.typ); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipPLYList(r *bufio.Reader, format string, prop plyProperty) error {
	count, err := readPLYScalar(r, format, prop.countType)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := readPLYScalar(r, format, prop.typ); err != nil {
			return err
		}
	}
	return nil
}

// readPLYScalar reads one scalar of the given declared type, honoring the
// body format. ASCII bodies are whitespace-delimited regardless of line
// boundaries.
func readPLYScalar(r *bufio.Reader, format, typ string) (float64, error) {
	if format == "ascii" {
		token, err := readASCIIToken(r)
		if err != nil {
			return 0, plyError("unexpected end of ascii body")
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0, plyError(fmt.Sprintf("bad ascii scalar %q", token))
		}
		return v, nil
	}

	size, ok := plyTypeSizes[typ]
	if !ok {
		return 0, plyError(fmt.Sprintf("unknown property type %q", typ))
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, plyError("unexpected end of binary body")
	}
	switch typ {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(binary.LittleEndian.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(binary.LittleEndian.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(binary.LittleEndian.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(binary.LittleEndian.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))), nil
	case "double", "float64":
		return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
	}
	return 0, plyError(fmt.Sprintf("unknown property type %q", typ))
}

func readASCIIToken(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			continue
		}
		sb.WriteByte(b)
	}
}

func plyHasProps(elem *plyElement, names ...string) bool {
	have := make(map[string]bool, len(elem.properties))
	for _, p := range elem.properties {
		have[p.name] = true
	}
	for _, n := range names {
		if !have[n] {
			return false
		}
	}
	return true
}

func plyError(detail string) error {
	return &models.ParseError{Kind: models.LoaderKindPLY, Detail: detail}
}
