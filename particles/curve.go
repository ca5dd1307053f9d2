package particles

import "github.com/sparklab/firefly/graph"

var curveUp = graph.Vec3{Y: 1}

const degenerateChordEpsilon = 1e-9

// curvePoint evaluates a quadratic Bezier between the current endpoint
// positions at parameter t. The control point sits at the chord midpoint,
// offset perpendicular to the chord by lift times the chord length, which
// bends the path and lets particles re-path when endpoints move.
func curvePoint(src, tgt graph.Vec3, t, lift float64) graph.Vec3 {
	chord := tgt.Sub(src)
	mid := src.Add(chord.Scale(0.5))

	perp := chord.Cross(curveUp)
	if perp.Length() < degenerateChordEpsilon {
		perp = chord.Cross(graph.Vec3{X: 1})
	}

	length := perp.Length()
	if length < degenerateChordEpsilon {
		perp = graph.Vec3{}
	} else {
		perp = perp.Scale(1 / length)
	}

	ctrl := mid.Add(perp.Scale(lift * chord.Length()))

	u := 1 - t

	return src.Scale(u * u).
		Add(ctrl.Scale(2 * u * t)).
		Add(tgt.Scale(t * t))
}
