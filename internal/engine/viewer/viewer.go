// Package viewer provides the moving observer whose position drives LOD
// selection and streaming priority.
package viewer

import (
	gomath "math"

	"github.com/helioforge/terrastream/pkg/geom"
)

// Orbit flies a circular path around a center point at a fixed height.
// Used by the simulation loop; a game would drive Position from its camera
// instead.
type Orbit struct {
	CenterX, CenterY float32
	Radius           float32
	Height           float32
	Speed            float32 // world units per second along the path

	angle float64
}

// NewOrbit creates an orbit path around the given center.
func NewOrbit(center geom.Vec2, radius, height, speed float32) *Orbit {
	return &Orbit{
		CenterX: center.X,
		CenterY: center.Y,
		Radius:  radius,
		Height:  height,
		Speed:   speed,
	}
}

// Advance moves the viewer along its path.
func (o *Orbit) Advance(deltaTime float64) {
	if o.Radius <= 0 {
		return
	}
	// Angular speed keeps the linear speed constant along the circle.
	o.angle += deltaTime * float64(o.Speed/o.Radius)
	if o.angle > 2*gomath.Pi {
		o.angle -= 2 * gomath.Pi
	}
}

// Position returns the viewer position in world space. The terrain plane is
// XY; Z is up.
func (o *Orbit) Position() geom.Vec3 {
	return geom.Vec3{
		X: o.CenterX + o.Radius*float32(gomath.Cos(o.angle)),
		Y: o.CenterY + o.Radius*float32(gomath.Sin(o.angle)),
		Z: o.Height,
	}
}
