// Package scene derives deterministic placement and camera framing for a
// loaded asset, so any input model appears centered and correctly sized
// regardless of its native units or origin.
package scene

import (
	"math"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

// Defaults for the normalizer. MinDimension is the degeneracy threshold below
// which placement is skipped entirely.
const (
	DefaultTargetSize = 2.0
	DefaultMargin     = 1.25
	MinDimension      = 1e-9
)

// Camera offset ratios relative to the framing distance, producing a
// consistent three-quarter elevated view instead of a straight-on shot.
var frameOffsetRatios = math3d.Vec3{X: 0.5, Y: 0.35, Z: 1.0}

// Normalizer computes placements and initial camera poses.
type Normalizer struct {
	targetSize float64
	margin     float64
	logger     arbor.ILogger
}

// NewNormalizer creates a normalizer. Non-positive targetSize or a margin
// below 1 fall back to the defaults.
func NewNormalizer(targetSize, margin float64, logger arbor.ILogger) *Normalizer {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if margin < 1 {
		margin = DefaultMargin
	}
	return &Normalizer{targetSize: targetSize, margin: margin, logger: logger}
}

// Place scales the asset uniformly so its largest dimension equals the target
// size, then translates it so the bounding-box center sits at the origin.
// A degenerate bounding box (empty mesh, zero extent) leaves the asset at its
// native transform; that is a documented edge case, not an error.
func (n *Normalizer) Place(asset *models.Asset) models.NormalizedPlacement {
	box := asset.BoundingBox()
	maxDim := box.MaxDimension()
	if box.IsEmpty() || maxDim < MinDimension {
		n.logger.Debug().Str("asset", asset.Name).Msg("Degenerate bounding box, placement skipped")
		return models.NormalizedPlacement{
			Scale:          asset.Scale,
			Translation:    asset.Translation,
			BoundingCenter: box.Center(),
			BoundingSize:   box.Size(),
		}
	}

	scale := n.targetSize / maxDim
	asset.Scale = asset.Scale * scale
	asset.Translation = asset.Translation.Scale(scale)

	// Re-box after scaling, then pull the new center to the origin.
	scaled := asset.BoundingBox()
	center := scaled.Center()
	asset.Translation = asset.Translation.Sub(center)

	final := asset.BoundingBox()
	placement := models.NormalizedPlacement{
		Applied:        true,
		Scale:          scale,
		Translation:    center.Scale(-1),
		BoundingCenter: final.Center(),
		BoundingSize:   final.Size(),
	}
	n.logger.Debug().
		Str("asset", asset.Name).
		Msgf("Placed asset: scale=%.4f maxDim=%.4f", scale, maxDim)
	return placement
}

// Frame derives the initial camera pose for an asset, assuming Place already
// ran: distance back from the bounding center so the silhouette fits inside
// the vertical field of view with a safety margin, offset by fixed per-axis
// ratios, looking at the center.
func (n *Normalizer) Frame(asset *models.Asset, fovDegrees float64) models.CameraPose {
	box := asset.BoundingBox()
	center := box.Center()
	maxDim := box.MaxDimension()
	if maxDim < MinDimension {
		maxDim = n.targetSize
	}
	fov := fovDegrees * math.Pi / 180
	if fov <= 0 || fov >= math.Pi {
		fov = math.Pi / 4
	}
	distance := maxDim / math.Sin(fov/2) * n.margin

	return models.CameraPose{
		Position: center.Add(frameOffsetRatios.Scale(distance)),
		Target:   center,
	}
}
