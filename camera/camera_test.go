package camera

import (
	"math"
	"testing"
)

func dist(x, y, z, tx, ty, tz float32) float64 {
	dx := float64(x - tx)
	dy := float64(y - ty)
	dz := float64(z - tz)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func TestPositionStaysOnOrbitSphere(t *testing.T) {
	o := New(12)
	for i := 0; i < 100; i++ {
		o.Update(0.05)
		x, y, z := o.Position()
		d := dist(x, y, z, o.TargetX, o.TargetY, o.TargetZ)
		if math.Abs(d-12) > 1e-3 {
			t.Fatalf("step %d: distance %v, want 12", i, d)
		}
	}
}

func TestAutoDriftAdvancesYaw(t *testing.T) {
	o := New(10)
	x0, _, z0 := o.Position()
	o.Update(1)
	x1, _, z1 := o.Position()
	if x0 == x1 && z0 == z1 {
		t.Fatal("camera did not drift")
	}
}

func TestPitchClamped(t *testing.T) {
	o := New(10)
	o.Drag(0, 100)
	if o.Pitch != o.MaxPitch {
		t.Fatalf("pitch = %v, want clamped to %v", o.Pitch, o.MaxPitch)
	}
	o.Drag(0, -200)
	if o.Pitch != o.MinPitch {
		t.Fatalf("pitch = %v, want clamped to %v", o.Pitch, o.MinPitch)
	}
	// Camera never flips over the pole.
	_, y, _ := o.Position()
	if float64(y) <= -float64(o.Distance) {
		t.Fatalf("camera at or below the pole: y=%v", y)
	}
}

func TestZoomClamped(t *testing.T) {
	o := New(10)
	o.Zoom(1000)
	if o.Distance != o.MinDistance {
		t.Fatalf("distance = %v, want %v", o.Distance, o.MinDistance)
	}
	o.Zoom(-1000)
	if o.Distance != o.MaxDistance {
		t.Fatalf("distance = %v, want %v", o.Distance, o.MaxDistance)
	}
}

func TestYawWrapsWithoutDriftingUnbounded(t *testing.T) {
	o := New(10)
	o.AutoYawSpeed = 10
	for i := 0; i < 1000; i++ {
		o.Update(0.1)
	}
	if float64(o.Yaw) > 2*math.Pi || float64(o.Yaw) < -2*math.Pi {
		t.Fatalf("yaw unbounded: %v", o.Yaw)
	}
}
