package loaders

import (
	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

// wrapBareGeometry gives formats that produce a single mesh without any
// hierarchy the same asset shape as scene formats: one root with one mesh
// node carrying the default material.
func wrapBareGeometry(name string, mesh *models.Mesh) *models.Asset {
	mesh.Material = models.DefaultMaterial()
	root := &models.Node{
		Name: "root",
		Children: []*models.Node{
			{Name: name, Mesh: mesh},
		},
	}
	return models.NewAsset(name, "", root)
}

// ensureNormals fills in vertex normals when a parser produced none,
// accumulating face normals per vertex and normalizing. Degenerate faces
// contribute nothing.
func ensureNormals(mesh *models.Mesh) {
	if len(mesh.Normals) == len(mesh.Positions) {
		return
	}
	normals := make([]math3d.Vec3, len(mesh.Positions))
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		i0, i1, i2 := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		if int(i0) >= len(mesh.Positions) || int(i1) >= len(mesh.Positions) || int(i2) >= len(mesh.Positions) {
			continue
		}
		edge1 := mesh.Positions[i1].Sub(mesh.Positions[i0])
		edge2 := mesh.Positions[i2].Sub(mesh.Positions[i0])
		face := edge1.Cross(edge2)
		normals[i0] = normals[i0].Add(face)
		normals[i1] = normals[i1].Add(face)
		normals[i2] = normals[i2].Add(face)
	}
	for i := range normals {
		normals[i] = normals[i].Normalized()
	}
	mesh.Normals = normals
}

// fanTriangulate appends triangle indices for a convex polygon given its
// vertex indices in winding order.
func fanTriangulate(indices []uint32, polygon []uint32) []uint32 {
	for i := 1; i+1 < len(polygon); i++ {
		indices = append(indices, polygon[0], polygon[i], polygon[i+1])
	}
	return indices
}
