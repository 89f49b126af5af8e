package models

import "github.com/ternarybob/prism/pkg/math3d"

// NormalizedPlacement records the deterministic transform applied to an asset
// so it appears centered at the origin at a fixed target size. For a
// degenerate bounding box Applied is false and the transform fields describe
// the identity.
type NormalizedPlacement struct {
	Applied        bool
	Scale          float64
	Translation    math3d.Vec3
	BoundingCenter math3d.Vec3
	BoundingSize   math3d.Vec3
}

// CameraPose is the initial camera placement derived by scene framing: where
// the camera sits and what it looks at. The camera controller consumes it as
// its starting state.
type CameraPose struct {
	Position math3d.Vec3
	Target   math3d.Vec3
}
