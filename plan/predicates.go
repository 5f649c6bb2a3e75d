package plan

// Visible reports whether a user terminal can steer a beam to sat. The angle
// at the user between the Earth center and the satellite is 180° when the
// satellite is at zenith; the terminal reaches MaxUserVisibleAngle off
// vertical.
func Visible(user, sat Point3, th Thresholds) (bool, error) {
	visible, _, err := visibility(user, sat, th, logDrift)
	return visible, err
}

// visibility returns the verdict together with the Earth-center/user/sat
// angle.
func visibility(user, sat Point3, th Thresholds, onDrift driftFunc) (bool, float64, error) {
	angle, err := angleDegrees(user, EarthCenter, sat, onDrift)
	if err != nil {
		return false, 0, err
	}
	return visibleAt(angle, th), angle, nil
}

// visibleAt applies the visibility limit to an Earth-center/user/sat angle.
func visibleAt(angle float64, th Thresholds) bool {
	return angle > 180.0-th.MaxUserVisibleAngle
}

// CrossSystemInterference reports whether any interferer appears, as seen by
// the user, within NonConstellationInterferenceMax of the serving satellite.
// The scan stops at the first violation.
func CrossSystemInterference(sat, user Point3, interferers []Entity, th Thresholds) (bool, error) {
	return crossSystemInterference(sat, user, interferers, th, logDrift)
}

func crossSystemInterference(sat, user Point3, interferers []Entity, th Thresholds, onDrift driftFunc) (bool, error) {
	for _, interferer := range interferers {
		angle, err := angleDegrees(user, sat, interferer.Pos, onDrift)
		if err != nil {
			return false, err
		}
		if angle < th.NonConstellationInterferenceMax {
			return true, nil
		}
	}
	return false, nil
}

// SelfInterferes reports whether two beams from sat towards userA and userB
// are closer than SelfInterferenceMax as seen from the satellite. Only beams
// of the same color conflict; callers filter by color.
func SelfInterferes(sat, userA, userB Point3, th Thresholds) (bool, error) {
	angle, err := AngleDegrees(sat, userA, userB)
	if err != nil {
		return false, err
	}
	return angle < th.SelfInterferenceMax, nil
}
