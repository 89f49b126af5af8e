package thumbnail

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

// raster is a minimal z-buffered software renderer. Triangles are flat
// shaded from a single directional light, which is all a thumbnail needs.
type raster struct {
	width, height int
	img           *image.RGBA
	depth         []float64
}

var lightDir = math3d.Vec3{X: 0.4, Y: 0.8, Z: 0.6}.Normalized()

func newRaster(width, height int) *raster {
	r := &raster{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		depth:  make([]float64, width*height),
	}
	bg := color.RGBA{R: 0x1e, G: 0x1e, B: 0x24, A: 0xff}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r.img.SetRGBA(x, y, bg)
		}
	}
	for i := range r.depth {
		r.depth[i] = math.Inf(1)
	}
	return r
}

// renderAsset projects every mesh triangle through view and a perspective
// divide, then rasterizes the survivors.
func (r *raster) renderAsset(asset *models.Asset, view math3d.Mat4, fov float64) {
	focal := 1 / math.Tan(fov/2)
	aspect := float64(r.width) / float64(r.height)

	asset.EachMesh(func(mesh *models.Mesh) {
		mat := mesh.Material
		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			a := r.worldVertex(asset, mesh, mesh.Indices[i])
			b := r.worldVertex(asset, mesh, mesh.Indices[i+1])
			c := r.worldVertex(asset, mesh, mesh.Indices[i+2])

			va := view.TransformPoint(a)
			vb := view.TransformPoint(b)
			vc := view.TransformPoint(c)
			// Camera looks down -Z in view space.
			if va.Z >= -1e-6 || vb.Z >= -1e-6 || vc.Z >= -1e-6 {
				continue
			}

			normal := b.Sub(a).Cross(c.Sub(a)).Normalized()
			shade := math3d.Clamp(normal.Dot(lightDir), 0, 1)*0.8 + 0.2

			r.fillTriangle(
				r.project(va, focal, aspect),
				r.project(vb, focal, aspect),
				r.project(vc, focal, aspect),
				shadeColor(mat, shade),
			)
		}
	})
}

func (r *raster) worldVertex(asset *models.Asset, mesh *models.Mesh, idx uint32) math3d.Vec3 {
	p := mesh.Positions[idx]
	return p.Scale(asset.Scale).Add(asset.Translation)
}

type screenPoint struct {
	x, y, z float64
}

func (r *raster) project(v math3d.Vec3, focal, aspect float64) screenPoint {
	inv := -1 / v.Z
	ndcX := v.X * focal / aspect * inv
	ndcY := v.Y * focal * inv
	return screenPoint{
		x: (ndcX + 1) / 2 * float64(r.width),
		y: (1 - ndcY) / 2 * float64(r.height),
		z: -v.Z,
	}
}

func shadeColor(mat models.Material, shade float64) color.RGBA {
	return color.RGBA{
		R: uint8(math3d.Clamp(mat.BaseColor[0]*shade, 0, 1) * 255),
		G: uint8(math3d.Clamp(mat.BaseColor[1]*shade, 0, 1) * 255),
		B: uint8(math3d.Clamp(mat.BaseColor[2]*shade, 0, 1) * 255),
		A: 0xff,
	}
}

// fillTriangle rasterizes with edge functions and a depth test.
func (r *raster) fillTriangle(a, b, c screenPoint, col color.RGBA) {
	minX := int(math.Floor(math.Min(a.x, math.Min(b.x, c.x))))
	maxX := int(math.Ceil(math.Max(a.x, math.Max(b.x, c.x))))
	minY := int(math.Floor(math.Min(a.y, math.Min(b.y, c.y))))
	maxY := int(math.Ceil(math.Max(a.y, math.Max(b.y, c.y))))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > r.width-1 {
		maxX = r.width - 1
	}
	if maxY > r.height-1 {
		maxY = r.height - 1
	}

	area := edge(a, b, c)
	if math.Abs(area) < 1e-12 {
		return
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := screenPoint{x: float64(x) + 0.5, y: float64(y) + 0.5}
			w0 := edge(b, c, p) / area
			w1 := edge(c, a, p) / area
			w2 := edge(a, b, p) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			di := y*r.width + x
			if z >= r.depth[di] {
				continue
			}
			r.depth[di] = z
			r.img.SetRGBA(x, y, col)
		}
	}
}

func edge(a, b, p screenPoint) float64 {
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

// downscale resamples the supersampled frame to size x size.
func (r *raster) downscale(size int) image.Image {
	if size == r.width && size == r.height {
		return r.img
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), r.img, r.img.Bounds(), draw.Over, nil)
	return dst
}
