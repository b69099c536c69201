package tle

import "time"

// ElementSet is one satellite's parsed two-line element record.
// Immutable once parsed; every field was validated by ParseSet.
type ElementSet struct {
	Name          string
	CatalogNumber string // 5-character numeric string, line 1 columns 3-7
	NORADID       int

	Epoch time.Time

	// Mean elements at epoch, in TLE native units.
	InclinationDeg float64 // degrees, [0, 180]
	RAANDeg        float64 // degrees
	Eccentricity   float64 // [0, 1)
	ArgPerigeeDeg  float64 // degrees
	MeanAnomalyDeg float64 // degrees
	MeanMotion     float64 // revolutions per day

	// Derivative and drag terms from line 1. MeanMotionDot is the half
	// first derivative as printed in the TLE (rev/day^2).
	MeanMotionDot  float64
	MeanMotionDDot float64 // rev/day^3, implied-decimal exponent field
	Bstar          float64 // drag term, 1/earth-radii

	ChecksumOK bool

	Line1, Line2 string
}

// EpochRange is the minimum and maximum element epochs in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is a complete catalog of element sets from one source.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Satellites []ElementSet
}
