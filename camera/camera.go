// Package camera provides an orbit camera for viewing the particle cloud.
// It is pure math so it can be tested headless; the app layer converts the
// resulting position into the renderer's camera type.
package camera

import "math"

// Orbit circles a target point at a spherical offset. Yaw advances slowly on
// its own so the scene drifts even without input; drag and zoom adjust the
// offset directly.
type Orbit struct {
	// TargetX/Y/Z is the look-at point.
	TargetX, TargetY, TargetZ float32

	// Yaw and Pitch are in radians. Pitch is clamped to avoid the poles.
	Yaw   float32
	Pitch float32

	// Distance from the target.
	Distance float32

	// AutoYawSpeed is radians per second of idle drift.
	AutoYawSpeed float32

	MinDistance, MaxDistance float32
	MinPitch, MaxPitch       float32
}

// New creates an orbit camera at the given distance with gentle auto-drift.
func New(distance float32) *Orbit {
	return &Orbit{
		Pitch:        0.35,
		Distance:     distance,
		AutoYawSpeed: 0.12,
		MinDistance:  2,
		MaxDistance:  60,
		MinPitch:     -1.45,
		MaxPitch:     1.45,
	}
}

// Update advances the idle drift by dt seconds.
func (o *Orbit) Update(dt float32) {
	o.Yaw += o.AutoYawSpeed * dt
	if o.Yaw > 2*math.Pi {
		o.Yaw -= 2 * math.Pi
	} else if o.Yaw < -2*math.Pi {
		o.Yaw += 2 * math.Pi
	}
}

// Drag applies a pointer delta (in radians) to yaw and pitch.
func (o *Orbit) Drag(dYaw, dPitch float32) {
	o.Yaw += dYaw
	o.Pitch = clamp(o.Pitch+dPitch, o.MinPitch, o.MaxPitch)
}

// Zoom moves the camera along the view ray. Positive delta moves closer.
func (o *Orbit) Zoom(delta float32) {
	o.Distance = clamp(o.Distance-delta, o.MinDistance, o.MaxDistance)
}

// Position returns the camera's world position for the current orbit state.
func (o *Orbit) Position() (x, y, z float32) {
	cp := float32(math.Cos(float64(o.Pitch)))
	sp := float32(math.Sin(float64(o.Pitch)))
	cy := float32(math.Cos(float64(o.Yaw)))
	sy := float32(math.Sin(float64(o.Yaw)))

	x = o.TargetX + o.Distance*cp*cy
	y = o.TargetY + o.Distance*sp
	z = o.TargetZ + o.Distance*cp*sy
	return x, y, z
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
