package overlay

import (
	"fmt"
	"math"
)

var directions = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// HeadingToDirection maps a heading in degrees to one of eight compass
// points.
func HeadingToDirection(heading float64) string {
	h := math.Mod(heading, 360)
	if h < 0 {
		h += 360
	}
	return directions[int(math.Floor(h/45+0.5))%8]
}

// FormatCoordinates renders latitude and longitude as degrees, minutes and
// seconds, e.g. 18°31'13.32" N.
func FormatCoordinates(lat, lon float64) (string, string) {
	return formatDegrees(lat, "N", "S"), formatDegrees(lon, "E", "W")
}

func formatDegrees(coord float64, positive, negative string) string {
	abs := math.Abs(coord)
	degrees := math.Floor(abs)
	minutesFloat := (abs - degrees) * 60
	minutes := math.Floor(minutesFloat)
	seconds := (minutesFloat - minutes) * 60

	direction := positive
	if coord < 0 {
		direction = negative
	}
	return fmt.Sprintf("%d°%d'%.2f\" %s", int(degrees), int(minutes), seconds, direction)
}

// FormatCoordinatesSimple is the plain form used in the audit log.
func FormatCoordinatesSimple(lat, lon float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lon)
}
