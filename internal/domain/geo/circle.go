package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// DefaultCircleSteps matches the vertex count used for radius overlays.
const DefaultCircleSteps = 64

// Circle approximates a circle of radiusKM around center as a closed ring.
func Circle(center Point, radiusKM float64, steps int) orb.Ring {
	if steps < 3 {
		steps = DefaultCircleSteps
	}

	ring := make(orb.Ring, 0, steps+1)
	c := center.Orb()
	for i := 0; i < steps; i++ {
		bearing := float64(i) * -360 / float64(steps)
		ring = append(ring, orbgeo.PointAtBearingAndDistance(c, bearing, radiusKM*1000))
	}
	ring = append(ring, ring[0])

	return ring
}
