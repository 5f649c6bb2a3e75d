package plan

import (
	"math"
)

const (
	earthRadiusKm = 6371.0
	altitudeKm    = 550.0
)

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }

// surfaceUser returns a user on the +z axis at the Earth's surface.
func surfaceUser() Point3 { return Point3{Z: earthRadiusKm} }

// overheadSat returns a satellite directly above surfaceUser.
func overheadSat() Point3 { return Point3{Z: earthRadiusKm + altitudeKm} }

// userSeenFromSat returns a point altitudeKm away from sat, angleDeg off
// nadir in the x-z plane.
func userSeenFromSat(sat Point3, angleDeg float64) Point3 {
	r := radians(angleDeg)
	return Point3{X: sat.X + altitudeKm*math.Sin(r), Y: sat.Y, Z: sat.Z - altitudeKm*math.Cos(r)}
}

// pointSeenFromUser returns a point dist km away from user, angleDeg off
// zenith in the x-z plane.
func pointSeenFromUser(user Point3, angleDeg, dist float64) Point3 {
	r := radians(angleDeg)
	return Point3{X: user.X + dist*math.Sin(r), Y: user.Y, Z: user.Z + dist*math.Cos(r)}
}

// testConfig returns DefaultConfig with serial evaluation.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 1
	return cfg
}

func lines(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.String())
	}
	return out
}
