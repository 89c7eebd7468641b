package face

/*
#cgo !windows pkg-config: opencv4
#cgo CXXFLAGS: --std=c++11
#include <stdlib.h>
#include "facemark.h"
*/
import "C"

import (
	"image"
	"unsafe"

	"gocv.io/x/gocv"

	"facelapse/internal/align"
)

// facemarkLBF wraps cv::face::FacemarkLBF from the OpenCV face contrib
// module, which has no released Go binding. Ownership follows the usual
// wrapper rules: newFacemarkLBF pairs with close, and fit copies its
// results into Go memory before returning.
type facemarkLBF struct {
	p C.FacemarkLBF
}

// newFacemarkLBF creates the predictor and loads its model. ok is false
// when the model cannot be parsed.
func newFacemarkLBF(modelPath string) (*facemarkLBF, bool) {
	cPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cPath))

	p := C.FacemarkLBF_Create(cPath)
	if p == nil {
		return nil, false
	}
	return &facemarkLBF{p: p}, true
}

func (f *facemarkLBF) close() {
	if f.p != nil {
		C.FacemarkLBF_Close(f.p)
		f.p = nil
	}
}

// fit runs the predictor on one face region of a grayscale image and
// returns the full landmark set, ok=false on any fitting failure.
func (f *facemarkLBF) fit(gray gocv.Mat, region image.Rectangle) ([]align.Point, bool) {
	data, err := gray.DataPtrUint8()
	if err != nil || len(data) == 0 {
		return nil, false
	}

	raw := make([]C.float, 2*align.LandmarkCount)
	ok := C.FacemarkLBF_Fit(f.p,
		(*C.uchar)(unsafe.Pointer(&data[0])), C.int(gray.Rows()), C.int(gray.Cols()),
		C.int(region.Min.X), C.int(region.Min.Y), C.int(region.Dx()), C.int(region.Dy()),
		(*C.float)(unsafe.Pointer(&raw[0])), C.int(len(raw)))
	if !ok {
		return nil, false
	}

	coords := make([]float64, len(raw))
	for i, v := range raw {
		coords[i] = float64(v)
	}
	return landmarkPoints(coords), true
}

// landmarkPoints unpacks interleaved x,y coordinate pairs.
func landmarkPoints(coords []float64) []align.Point {
	pts := make([]align.Point, len(coords)/2)
	for i := range pts {
		pts[i] = align.Point{X: coords[2*i], Y: coords[2*i+1]}
	}
	return pts
}
