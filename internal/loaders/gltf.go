package loaders

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

// parseGLTF decodes a GLB container or a glTF JSON document with embedded
// buffers. External .bin references cannot resolve from an in-memory payload
// and surface as a parse error when their accessors are read. Node TRS
// transforms are not applied; primitives are attached flat under the root.
func parseGLTF(data []byte) (*models.Asset, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, gltfError(err.Error())
	}

	root := &models.Node{Name: "root"}
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			mesh, err := buildGLTFPrimitive(doc, prim)
			if err != nil {
				return nil, err
			}
			if mesh == nil {
				continue
			}
			name := gm.Name
			if name == "" {
				name = fmt.Sprintf("mesh_%d", mi)
			}
			if len(gm.Primitives) > 1 {
				name = fmt.Sprintf("%s_%d", name, pi)
			}
			root.Children = append(root.Children, &models.Node{Name: name, Mesh: mesh})
		}
	}
	if len(root.Children) == 0 {
		return nil, gltfError("document contains no triangle geometry")
	}
	return models.NewAsset("gltf", "", root), nil
}

func buildGLTFPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*models.Mesh, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		// Primitives without positions (e.g. morph-target only) are skipped.
		return nil, nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, gltfError(fmt.Sprintf("read POSITION: %v", err))
	}

	mesh := &models.Mesh{
		Positions: make([]math3d.Vec3, len(positions)),
		Material:  models.DefaultMaterial(),
	}
	for i, p := range positions {
		mesh.Positions[i] = math3d.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
	}

	if normIdx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
		if err != nil {
			return nil, gltfError(fmt.Sprintf("read NORMAL: %v", err))
		}
		if len(normals) == len(positions) {
			mesh.Normals = make([]math3d.Vec3, len(normals))
			for i, n := range normals {
				mesh.Normals[i] = math3d.Vec3{X: float64(n[0]), Y: float64(n[1]), Z: float64(n[2])}
			}
		}
	}
	if uvIdx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
		if err != nil {
			return nil, gltfError(fmt.Sprintf("read TEXCOORD_0: %v", err))
		}
		if len(uvs) == len(positions) {
			mesh.UVs = make([]math3d.Vec2, len(uvs))
			for i, uv := range uvs {
				mesh.UVs[i] = math3d.Vec2{X: float64(uv[0]), Y: float64(uv[1])}
			}
		}
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, gltfError(fmt.Sprintf("read indices: %v", err))
		}
		mesh.Indices = indices
	} else {
		mesh.Indices = make([]uint32, len(positions))
		for i := range mesh.Indices {
			mesh.Indices[i] = uint32(i)
		}
	}
	ensureNormals(mesh)
	return mesh, nil
}

func gltfError(detail string) error {
	return &models.ParseError{Kind: models.LoaderKindGLTF, Detail: detail}
}
