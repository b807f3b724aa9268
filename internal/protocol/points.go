package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePoints parses coordinates written as "x,y" pairs. Pairs may be passed
// as separate fields or space-separated within one field.
func ParsePoints(fields ...string) ([]Point, error) {
	var points []Point
	for _, field := range fields {
		for _, pair := range strings.Fields(field) {
			xs, ys, ok := strings.Cut(pair, ",")
			if !ok {
				return nil, fmt.Errorf("point %q: want x,y", pair)
			}
			x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
			if err != nil {
				return nil, fmt.Errorf("point %q: bad x: %w", pair, err)
			}
			y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
			if err != nil {
				return nil, fmt.Errorf("point %q: bad y: %w", pair, err)
			}
			points = append(points, Point{X: x, Y: y})
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("at least one point is required")
	}
	return points, nil
}
