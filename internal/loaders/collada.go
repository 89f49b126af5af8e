package loaders

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

// COLLADA document shapes, limited to library_geometries. Namespaces are
// matched by local name.
type colladaDoc struct {
	XMLName    xml.Name          `xml:"COLLADA"`
	Geometries []colladaGeometry `xml:"library_geometries>geometry"`
}

type colladaGeometry struct {
	ID   string       `xml:"id,attr"`
	Name string       `xml:"name,attr"`
	Mesh *colladaMesh `xml:"mesh"`
}

type colladaMesh struct {
	Sources   []colladaSource     `xml:"source"`
	Vertices  colladaVertices     `xml:"vertices"`
	Triangles []colladaPrimitives `xml:"triangles"`
	Polylists []colladaPrimitives `xml:"polylist"`
}

type colladaSource struct {
	ID         string             `xml:"id,attr"`
	FloatArray *colladaFloatArray `xml:"float_array"`
}

type colladaFloatArray struct {
	Count int    `xml:"count,attr"`
	Text  string `xml:",chardata"`
}

type colladaVertices struct {
	ID     string         `xml:"id,attr"`
	Inputs []colladaInput `xml:"input"`
}

type colladaInput struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   int    `xml:"offset,attr"`
}

type colladaPrimitives struct {
	Count  int            `xml:"count,attr"`
	Inputs []colladaInput `xml:"input"`
	VCount string         `xml:"vcount"`
	P      string         `xml:"p"`
}

// parseCollada parses the geometry libraries of a COLLADA (.dae) document.
// Each geometry becomes one node; triangles and polylist primitives are
// supported, with per-corner position and normal streams.
func parseCollada(data []byte) (*models.Asset, error) {
	var doc colladaDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, daeError(err.Error())
	}
	if len(doc.Geometries) == 0 {
		return nil, daeError("document has no library_geometries")
	}

	root := &models.Node{Name: "root"}
	for gi, geom := range doc.Geometries {
		if geom.Mesh == nil {
			continue
		}
		mesh, err := buildColladaMesh(geom.Mesh)
		if err != nil {
			return nil, err
		}
		if mesh == nil {
			continue
		}
		name := geom.Name
		if name == "" {
			name = geom.ID
		}
		if name == "" {
			name = fmt.Sprintf("geometry_%d", gi)
		}
		root.Children = append(root.Children, &models.Node{Name: name, Mesh: mesh})
	}
	if len(root.Children) == 0 {
		return nil, daeError("no triangle geometry found")
	}
	return models.NewAsset("dae", "", root), nil
}

func buildColladaMesh(cm *colladaMesh) (*models.Mesh, error) {
	sources := make(map[string][]float64, len(cm.Sources))
	for _, src := range cm.Sources {
		if src.FloatArray == nil {
			continue
		}
		floats, err := parseFloatList(src.FloatArray.Text)
		if err != nil {
			return nil, daeError(fmt.Sprintf("source %s: %v", src.ID, err))
		}
		sources[src.ID] = floats
	}

	// The vertices element indirects POSITION through its own id.
	var positionSource string
	for _, in := range cm.Vertices.Inputs {
		if in.Semantic == "POSITION" {
			positionSource = strings.TrimPrefix(in.Source, "#")
		}
	}
	positions := sources[positionSource]
	if len(positions) == 0 {
		return nil, daeError("mesh has no POSITION source")
	}

	mesh := &models.Mesh{Material: models.DefaultMaterial()}
	emit := func(prims colladaPrimitives, vcounts []int) error {
		stride := 0
		vertexOffset, normalOffset := -1, -1
		var normalSource string
		for _, in := range prims.Inputs {
			if in.Offset+1 > stride {
				stride = in.Offset + 1
			}
			switch in.Semantic {
			case "VERTEX":
				vertexOffset = in.Offset
			case "NORMAL":
				normalOffset = in.Offset
				normalSource = strings.TrimPrefix(in.Source, "#")
			}
		}
		if vertexOffset < 0 || stride == 0 {
			return daeError("primitive missing VERTEX input")
		}
		indices, err := parseIntList(prims.P)
		if err != nil {
			return daeError(fmt.Sprintf("bad index stream: %v", err))
		}
		normals := sources[normalSource]

		corners := len(indices) / stride
		cursor := 0
		addCorner := func(corner int) error {
			base := corner * stride
			pi := indices[base+vertexOffset]
			if pi*3+2 >= len(positions) || pi < 0 {
				return daeError(fmt.Sprintf("position index %d out of range", pi))
			}
			mesh.Positions = append(mesh.Positions, math3d.Vec3{
				X: positions[pi*3], Y: positions[pi*3+1], Z: positions[pi*3+2],
			})
			if normalOffset >= 0 {
				ni := indices[base+normalOffset]
				if ni >= 0 && ni*3+2 < len(normals) {
					mesh.Normals = append(mesh.Normals, math3d.Vec3{
						X: normals[ni*3], Y: normals[ni*3+1], Z: normals[ni*3+2],
					})
				}
			}
			mesh.Indices = append(mesh.Indices, uint32(len(mesh.Positions)-1))
			return nil
		}

		if vcounts == nil {
			// triangles: every three corners form a face
			for corner := 0; corner+2 < corners; corner += 3 {
				for k := 0; k < 3; k++ {
					if err := addCorner(corner + k); err != nil {
						return err
					}
				}
			}
			return nil
		}
		// polylist: fan-triangulate each polygon of vcount corners
		for _, vc := range vcounts {
			if cursor+vc > corners {
				return daeError("vcount exceeds index stream")
			}
			for i := 1; i+1 < vc; i++ {
				for _, k := range []int{0, i, i + 1} {
					if err := addCorner(cursor + k); err != nil {
						return err
					}
				}
			}
			cursor += vc
		}
		return nil
	}

	for _, tri := range cm.Triangles {
		if err := emit(tri, nil); err != nil {
			return nil, err
		}
	}
	for _, poly := range cm.Polylists {
		vcounts, err := parseIntList(poly.VCount)
		if err != nil {
			return nil, daeError(fmt.Sprintf("bad vcount stream: %v", err))
		}
		if err := emit(poly, vcounts); err != nil {
			return nil, err
		}
	}

	if len(mesh.Indices) == 0 {
		return nil, nil
	}
	if len(mesh.Normals) != len(mesh.Positions) {
		mesh.Normals = nil
	}
	ensureNormals(mesh)
	return mesh, nil
}

func parseFloatList(text string) ([]float64, error) {
	fields := strings.Fields(text)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func parseIntList(text string) ([]int, error) {
	fields := strings.Fields(text)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func daeError(detail string) error {
	return &models.ParseError{Kind: models.LoaderKindCollada, Detail: detail}
}
