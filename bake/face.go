package bake

import "fmt"

// Face is one of the six logical cube-map slots baked for the planet surface.
type Face int

// FaceCount is the number of faces produced by every bake.
const FaceCount = 6

const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

var faceNames = [FaceCount]string{"px", "nx", "py", "ny", "pz", "nz"}

func (f Face) String() string {
	if f < 0 || int(f) >= FaceCount {
		return fmt.Sprintf("Face(%d)", int(f))
	}
	return faceNames[f]
}

// Valid reports whether f is in [0, FaceCount).
func (f Face) Valid() bool {
	return f >= 0 && int(f) < FaceCount
}

// Faces returns all faces in index order.
func Faces() []Face {
	out := make([]Face, FaceCount)
	for i := range out {
		out[i] = Face(i)
	}
	return out
}
