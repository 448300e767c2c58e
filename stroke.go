package labelmask

import (
	"image"
	"math"
)

// ResampleSegment converts the straight segment (x0,y0)-(x1,y1) into
// discrete stamp centers, both endpoints included.
//
// The step along the segment is max(1, r*0.5) pixels: a brush moving
// faster than its own radius still lands overlapping stamps, so fast
// freehand strokes never break into dots. Intermediate points are rounded
// to the nearest pixel; consecutive duplicates are dropped.
func ResampleSegment(x0, y0, x1, y1, r int) []image.Point {
	if x0 == x1 && y0 == y1 {
		return []image.Point{{X: x0, Y: y0}}
	}

	step := math.Max(1, float64(r)*0.5)
	dx := float64(x1 - x0)
	dy := float64(y1 - y0)
	dist := math.Hypot(dx, dy)

	n := int(dist / step)
	if n < 1 {
		n = 1
	}

	points := make([]image.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		p := image.Point{
			X: int(math.Round(float64(x0) + dx*t)),
			Y: int(math.Round(float64(y0) + dy*t)),
		}
		if len(points) > 0 && points[len(points)-1] == p {
			continue
		}
		points = append(points, p)
	}
	return points
}

// segmentRect returns the bounding box of a stroke segment inflated by
// the stamp radius. The recorder snapshots the tiles under this rect
// before any stamp of the segment mutates them.
func segmentRect(x0, y0, x1, y1, r int) image.Rectangle {
	return image.Rect(
		min(x0, x1)-r,
		min(y0, y1)-r,
		max(x0, x1)+r+1,
		max(y0, y1)+r+1,
	)
}
