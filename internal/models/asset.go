package models

import (
	"github.com/ternarybob/prism/pkg/math3d"
)

// Material is the shading description attached to a mesh. Loaders that have
// no material information use DefaultMaterial so every mesh is renderable.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA, 0..1
	Metallic  float64
	Roughness float64
}

// DefaultMaterial returns the physically-plausible neutral material applied
// to bare-geometry formats.
func DefaultMaterial() Material {
	return Material{
		Name:      "default",
		BaseColor: [4]float64{0.8, 0.8, 0.8, 1.0},
		Metallic:  0.1,
		Roughness: 0.75,
	}
}

// Mesh holds indexed triangle geometry. Indices always describe triangles
// (three per face); loaders triangulate polygons before building a mesh.
type Mesh struct {
	Positions []math3d.Vec3
	Normals   []math3d.Vec3
	UVs       []math3d.Vec2
	Indices   []uint32
	Material  Material
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	out := &Mesh{Material: m.Material}
	out.Positions = append([]math3d.Vec3(nil), m.Positions...)
	out.Normals = append([]math3d.Vec3(nil), m.Normals...)
	out.UVs = append([]math3d.Vec2(nil), m.UVs...)
	out.Indices = append([]uint32(nil), m.Indices...)
	return out
}

// Node is one element of the asset's object graph. A node may carry geometry,
// children, or both.
type Node struct {
	Name     string
	Mesh     *Mesh
	Children []*Node
}

// Clone returns a deep copy of the node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Name: n.Name, Mesh: n.Mesh.Clone()}
	for _, child := range n.Children {
		out.Children = append(out.Children, child.Clone())
	}
	return out
}

// Asset is the in-memory representation of one loaded model: a node graph
// plus the normalization transform applied by the scene normalizer. Scale
// and Translation start as the identity and are only touched by placement.
type Asset struct {
	Name   string
	Format string // source extension, lowercase

	Root *Node

	Scale       float64
	Translation math3d.Vec3
}

// NewAsset creates an asset with an identity transform around the given root.
func NewAsset(name, format string, root *Node) *Asset {
	return &Asset{
		Name:   name,
		Format: format,
		Root:   root,
		Scale:  1,
	}
}

// Clone returns a deep copy of the asset, for consumers (thumbnailing) that
// must not disturb the displayed instance.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	return &Asset{
		Name:        a.Name,
		Format:      a.Format,
		Root:        a.Root.Clone(),
		Scale:       a.Scale,
		Translation: a.Translation,
	}
}

// BoundingBox computes the world-space axis-aligned bounding box of the
// asset with its current scale and translation applied. An asset with no
// geometry yields an empty box.
func (a *Asset) BoundingBox() math3d.Box3 {
	box := math3d.NewBox3()
	if a == nil || a.Root == nil {
		return box
	}
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Mesh != nil {
			for _, p := range n.Mesh.Positions {
				box = box.ExpandByPoint(p.Scale(a.Scale).Add(a.Translation))
			}
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(a.Root)
	return box
}

// EachMesh visits every mesh in the graph in depth-first order.
func (a *Asset) EachMesh(fn func(*Mesh)) {
	if a == nil || a.Root == nil {
		return
	}
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Mesh != nil {
			fn(n.Mesh)
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(a.Root)
}

// TriangleCount returns the number of triangles across all meshes.
func (a *Asset) TriangleCount() int {
	var count int
	a.EachMesh(func(m *Mesh) {
		count += len(m.Indices) / 3
	})
	return count
}
