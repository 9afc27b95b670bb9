package pose

import "math"

// singularEps is the threshold on sy below which the rotation matrix is
// treated as gimbal-locked.
const singularEps = 1e-6

// RotationMatrix converts a Rodrigues rotation vector to a 3x3 rotation
// matrix: R = cos(t)*I + (1-cos(t))*u*uT + sin(t)*[u]x, with t the vector
// norm and u its direction.
func RotationMatrix(rvec [3]float64) [3][3]float64 {
	theta := math.Sqrt(rvec[0]*rvec[0] + rvec[1]*rvec[1] + rvec[2]*rvec[2])
	if theta < 1e-12 {
		return [3][3]float64{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		}
	}

	ux := rvec[0] / theta
	uy := rvec[1] / theta
	uz := rvec[2] / theta
	c := math.Cos(theta)
	s := math.Sin(theta)
	c1 := 1 - c

	return [3][3]float64{
		{c + ux*ux*c1, ux*uy*c1 - uz*s, ux*uz*c1 + uy*s},
		{uy*ux*c1 + uz*s, c + uy*uy*c1, uy*uz*c1 - ux*s},
		{uz*ux*c1 - uy*s, uz*uy*c1 + ux*s, c + uz*uz*c1},
	}
}

// EulerFromMatrix extracts pitch, yaw and roll in degrees from a rotation
// matrix. At the gimbal-lock singularity (sy < 1e-6) roll is forced to 0.
func EulerFromMatrix(r [3][3]float64) (pitch, yaw, roll float64) {
	sy := math.Sqrt(r[0][0]*r[0][0] + r[1][0]*r[1][0])
	if sy >= singularEps {
		pitch = math.Atan2(r[2][1], r[2][2])
		yaw = math.Atan2(-r[2][0], sy)
		roll = math.Atan2(r[1][0], r[0][0])
	} else {
		pitch = math.Atan2(-r[1][2], r[1][1])
		yaw = math.Atan2(-r[2][0], sy)
		roll = 0
	}
	return degrees(pitch), degrees(yaw), degrees(roll)
}

// EulerFromVector is EulerFromMatrix applied to a rotation vector.
func EulerFromVector(rvec [3]float64) (pitch, yaw, roll float64) {
	return EulerFromMatrix(RotationMatrix(rvec))
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
