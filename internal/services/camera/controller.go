// Package camera implements the gesture-driven camera/model interaction
// state machine. Mouse and touch adapters translate raw input into the
// abstract pointer/gesture events consumed here, so the math exists once for
// both device families.
package camera

import (
	"math"
	"sync"

	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/pkg/math3d"
)

// Mode selects one of the two interaction philosophies. They are alternate
// configurations, never blended: ModeObject rotates the displayed asset about
// its local axes; ModeOrbit moves the camera around a fixed target.
type Mode int

const (
	ModeObject Mode = iota
	ModeOrbit
)

// Phase is the controller's finite-state-machine state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhasePinching
)

// Touch is one active touch point in viewport pixels.
type Touch struct {
	X, Y float64
}

// Config bounds and scales every interaction. Zero values are replaced by
// defaults in NewController.
type Config struct {
	Mode               Mode
	MinDistance        float64
	MaxDistance        float64
	RotateSpeed        float64 // radians per pixel of drag
	ZoomSensitivity    float64 // distance units per pixel of pinch spread
	RotationMultiplier float64 // roll radians per radian of two-finger twist
	ZoomStep           float64 // fractional distance change per wheel tick
	PolarEpsilon       float64 // keep-out band at the poles
}

const (
	defaultMinDistance     = 0.5
	defaultMaxDistance     = 50.0
	defaultRotateSpeed     = 0.01
	defaultZoomSensitivity = 0.05
	defaultRotationMult    = 1.0
	defaultZoomStep        = 0.1
	defaultPolarEpsilon    = 0.05
)

// Controller tracks spherical camera state and model rotation under a stream
// of pointer/gesture events. Distance and polar-angle invariants are enforced
// on every mutation, not just at phase transitions, so no event sequence can
// drive the camera into a degenerate configuration.
type Controller struct {
	mu  sync.Mutex
	cfg Config

	phase Phase

	// Spherical coordinates of the camera around target.
	target   math3d.Vec3
	distance float64
	azimuth  float64 // angle around Y
	polar    float64 // angle from +Y, clamped to (epsilon, pi-epsilon)
	roll     float64 // two-finger twist accumulates here

	// Model rotation, used only in ModeObject.
	modelRotX float64
	modelRotY float64

	// Gesture bookkeeping.
	lastX, lastY  float64
	lastPinchDist float64
	lastPinchAng  float64
}

// NewController creates a controller with cfg, filling unset fields with
// defaults.
func NewController(cfg Config) *Controller {
	if cfg.MinDistance <= 0 {
		cfg.MinDistance = defaultMinDistance
	}
	if cfg.MaxDistance <= cfg.MinDistance {
		cfg.MaxDistance = defaultMaxDistance
	}
	if cfg.RotateSpeed == 0 {
		cfg.RotateSpeed = defaultRotateSpeed
	}
	if cfg.ZoomSensitivity == 0 {
		cfg.ZoomSensitivity = defaultZoomSensitivity
	}
	if cfg.RotationMultiplier == 0 {
		cfg.RotationMultiplier = defaultRotationMult
	}
	if cfg.ZoomStep == 0 {
		cfg.ZoomStep = defaultZoomStep
	}
	if cfg.PolarEpsilon <= 0 {
		cfg.PolarEpsilon = defaultPolarEpsilon
	}
	c := &Controller{
		cfg:      cfg,
		distance: (cfg.MinDistance + cfg.MaxDistance) / 2,
		polar:    math.Pi / 2,
	}
	c.clampState()
	return c
}

// SetPose initializes the controller from a framing pose, converting the
// camera offset to spherical coordinates.
func (c *Controller) SetPose(pose models.CameraPose) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.target = pose.Target
	offset := pose.Position.Sub(pose.Target)
	c.distance = offset.Length()
	if c.distance > 0 {
		c.polar = math.Acos(math3d.Clamp(offset.Y/c.distance, -1, 1))
		c.azimuth = math.Atan2(offset.X, offset.Z)
	}
	c.clampState()
}

// Phase returns the current state machine phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// PointerDown begins a drag: idle -> dragging. Ignored while pinching.
func (c *Controller) PointerDown(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhasePinching {
		return
	}
	c.phase = PhaseDragging
	c.lastX, c.lastY = x, y
}

// PointerMove applies a drag delta. In ModeObject the delta rotates the
// displayed asset; in ModeOrbit it orbits the camera. No-op outside
// dragging.
func (c *Controller) PointerMove(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseDragging {
		return
	}
	dx := x - c.lastX
	dy := y - c.lastY
	c.lastX, c.lastY = x, y

	switch c.cfg.Mode {
	case ModeObject:
		c.modelRotY += dx * c.cfg.RotateSpeed
		c.modelRotX += dy * c.cfg.RotateSpeed
	case ModeOrbit:
		c.azimuth -= dx * c.cfg.RotateSpeed
		c.polar -= dy * c.cfg.RotateSpeed
	}
	c.clampState()
}

// PointerUp ends a drag: dragging -> idle. Pointer-leave routes here too.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseDragging {
		c.phase = PhaseIdle
	}
}

// TouchStart feeds a touch-start event. One touch begins a drag; two touches
// enter pinching from idle or dragging, recording the initial inter-finger
// distance and angle.
func (c *Controller) TouchStart(touches []Touch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case len(touches) >= 2:
		c.phase = PhasePinching
		c.lastPinchDist = pinchDistance(touches[0], touches[1])
		c.lastPinchAng = pinchAngle(touches[0], touches[1])
	case len(touches) == 1:
		if c.phase != PhasePinching {
			c.phase = PhaseDragging
			c.lastX, c.lastY = touches[0].X, touches[0].Y
		}
	}
}

// TouchMove feeds a touch-move event. Single-touch moves behave like pointer
// drags; two-touch moves update zoom (pinch spread) and roll (twist)
// independently of each other.
func (c *Controller) TouchMove(touches []Touch) {
	if len(touches) == 1 {
		c.PointerMove(touches[0].X, touches[0].Y)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePinching || len(touches) < 2 {
		return
	}
	dist := pinchDistance(touches[0], touches[1])
	ang := pinchAngle(touches[0], touches[1])

	c.distance -= (dist - c.lastPinchDist) * c.cfg.ZoomSensitivity
	c.roll -= angleDelta(ang, c.lastPinchAng) * c.cfg.RotationMultiplier

	c.lastPinchDist = dist
	c.lastPinchAng = ang
	c.clampState()
}

// TouchEnd feeds a touch-end event with the touches that remain. Fewer than
// two remaining touches returns the controller to idle; a surviving finger
// starts a new drag only through a fresh touch-start.
func (c *Controller) TouchEnd(remaining []Touch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(remaining) >= 2 {
		return
	}
	c.phase = PhaseIdle
}

// Wheel applies a stateless zoom outside the state machine: direction is +1
// to zoom out, -1 to zoom in.
func (c *Controller) Wheel(direction float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.distance *= 1 + direction*c.cfg.ZoomStep
	c.clampState()
}

// State returns the current camera state snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Position:  c.positionLocked(),
		Target:    c.target,
		Distance:  c.distance,
		Azimuth:   c.azimuth,
		Polar:     c.polar,
		Roll:      c.roll,
		ModelRotX: c.modelRotX,
		ModelRotY: c.modelRotY,
	}
}

// ModelRotation returns the model rotation matrix for ModeObject rendering.
func (c *Controller) ModelRotation() math3d.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return math3d.RotationX(c.modelRotX).Mul(math3d.RotationY(c.modelRotY))
}

// State is a snapshot of the controller for the render loop.
type State struct {
	Position  math3d.Vec3
	Target    math3d.Vec3
	Distance  float64
	Azimuth   float64
	Polar     float64
	Roll      float64
	ModelRotX float64
	ModelRotY float64
}

// positionLocked derives the Cartesian camera position from the spherical
// state. Caller must hold the mutex.
func (c *Controller) positionLocked() math3d.Vec3 {
	sinPolar := math.Sin(c.polar)
	return math3d.Vec3{
		X: c.target.X + c.distance*sinPolar*math.Sin(c.azimuth),
		Y: c.target.Y + c.distance*math.Cos(c.polar),
		Z: c.target.Z + c.distance*sinPolar*math.Cos(c.azimuth),
	}
}

// clampState enforces the distance and polar invariants. Called after every
// mutation so intermediate states can never be degenerate.
func (c *Controller) clampState() {
	c.distance = math3d.Clamp(c.distance, c.cfg.MinDistance, c.cfg.MaxDistance)
	c.polar = math3d.Clamp(c.polar, c.cfg.PolarEpsilon, math.Pi-c.cfg.PolarEpsilon)
}

func pinchDistance(a, b Touch) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func pinchAngle(a, b Touch) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// angleDelta returns the shortest signed difference between two angles.
func angleDelta(a, b float64) float64 {
	d := a - b
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
