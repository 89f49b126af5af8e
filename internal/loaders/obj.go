package loaders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

// objKey identifies one position/uv/normal combination from a face element.
type objKey struct {
	v, vt, vn int
}

// parseOBJ parses Wavefront OBJ text. Supported statements: v, vt, vn, f, o,
// g; everything else (materials, smoothing groups) is ignored. Faces may use
// any of the v, v/vt, v//vn, v/vt/vn forms with 1-based or negative indices,
// and polygons are fan-triangulated.
func parseOBJ(text string) (*models.Asset, error) {
	var (
		positions []math3d.Vec3
		uvs       []math3d.Vec2
		normals   []math3d.Vec3
		name      string
	)

	mesh := &models.Mesh{}
	remap := make(map[objKey]uint32)
	var faceCount int

	lookup := func(key objKey) (uint32, error) {
		if idx, ok := remap[key]; ok {
			return idx, nil
		}
		if key.v < 0 || key.v >= len(positions) {
			return 0, fmt.Errorf("vertex index %d out of range", key.v+1)
		}
		idx := uint32(len(mesh.Positions))
		mesh.Positions = append(mesh.Positions, positions[key.v])
		if key.vt >= 0 && key.vt < len(uvs) {
			mesh.UVs = append(mesh.UVs, uvs[key.vt])
		}
		if key.vn >= 0 && key.vn < len(normals) {
			mesh.Normals = append(mesh.Normals, normals[key.vn])
		}
		remap[key] = idx
		return idx, nil
	}

	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, err := parseFloats3(fields[1:])
			if err != nil {
				return nil, objError(lineNo, err)
			}
			positions = append(positions, p)
		case "vn":
			n, err := parseFloats3(fields[1:])
			if err != nil {
				return nil, objError(lineNo, err)
			}
			normals = append(normals, n)
		case "vt":
			if len(fields) < 3 {
				return nil, objError(lineNo, fmt.Errorf("vt needs 2 components"))
			}
			u, err1 := strconv.ParseFloat(fields[1], 64)
			v, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil {
				return nil, objError(lineNo, fmt.Errorf("invalid texcoord %q", line))
			}
			uvs = append(uvs, math3d.Vec2{X: u, Y: v})
		case "f":
			if len(fields) < 4 {
				return nil, objError(lineNo, fmt.Errorf("face needs at least 3 vertices"))
			}
			polygon := make([]uint32, 0, len(fields)-1)
			for _, elem := range fields[1:] {
				key, err := parseFaceElement(elem, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, objError(lineNo, err)
				}
				idx, err := lookup(key)
				if err != nil {
					return nil, objError(lineNo, err)
				}
				polygon = append(polygon, idx)
			}
			mesh.Indices = fanTriangulate(mesh.Indices, polygon)
			faceCount++
		case "o", "g":
			if name == "" && len(fields) > 1 {
				name = fields[1]
			}
		}
	}

	if faceCount == 0 {
		return nil, &models.ParseError{Kind: models.LoaderKindOBJ, Detail: "no faces found"}
	}
	// Per-corner attributes may be partial across faces; drop ragged arrays
	// so the mesh stays internally consistent.
	if len(mesh.UVs) != len(mesh.Positions) {
		mesh.UVs = nil
	}
	if len(mesh.Normals) != len(mesh.Positions) {
		mesh.Normals = nil
	}
	ensureNormals(mesh)

	if name == "" {
		name = "obj"
	}
	return wrapBareGeometry(name, mesh), nil
}

// parseFaceElement parses one "v", "v/vt", "v//vn" or "v/vt/vn" element into
// zero-based indices, resolving negative (relative) references.
func parseFaceElement(elem string, nv, nvt, nvn int) (objKey, error) {
	key := objKey{v: -1, vt: -1, vn: -1}
	parts := strings.Split(elem, "/")
	if len(parts) == 0 || parts[0] == "" {
		return key, fmt.Errorf("malformed face element %q", elem)
	}
	resolve := func(raw string, count int) (int, error) {
		i, err := strconv.Atoi(raw)
		if err != nil {
			return -1, fmt.Errorf("malformed face index %q", raw)
		}
		if i < 0 {
			return count + i, nil
		}
		return i - 1, nil
	}
	var err error
	if key.v, err = resolve(parts[0], nv); err != nil {
		return key, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if key.vt, err = resolve(parts[1], nvt); err != nil {
			return key, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if key.vn, err = resolve(parts[2], nvn); err != nil {
			return key, err
		}
	}
	return key, nil
}

func parseFloats3(fields []string) (math3d.Vec3, error) {
	if len(fields) < 3 {
		return math3d.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("invalid float %q", fields[i])
		}
		out[i] = f
	}
	return math3d.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func objError(lineNo int, err error) error {
	return &models.ParseError{
		Kind:   models.LoaderKindOBJ,
		Detail: fmt.Sprintf("line %d: %v", lineNo+1, err),
	}
}
