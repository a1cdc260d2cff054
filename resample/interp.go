package resample

import (
	"fmt"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Interpolation selects how source pixels are sampled.
type Interpolation uint8

const (
	// Nearest selects the closest pixel (no interpolation).
	// Use it for masks and label maps, where blending would invent classes.
	Nearest Interpolation = iota

	// ApproxBilinear is a fast approximation of Bilinear.
	ApproxBilinear

	// Bilinear interpolates between the 4 neighboring pixels.
	Bilinear

	// CatmullRom is a bicubic kernel. Highest quality, slowest.
	CatmullRom
)

// String returns the configuration name of the interpolation.
func (i Interpolation) String() string {
	switch i {
	case Nearest:
		return "nearest"
	case ApproxBilinear:
		return "approx_bilinear"
	case Bilinear:
		return "bilinear"
	case CatmullRom:
		return "catmull_rom"
	default:
		return "unknown"
	}
}

// ParseInterpolation parses an interpolation name as used in configuration
// files and on the command line.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nearest", "nearest_neighbor":
		return Nearest, nil
	case "approx_bilinear", "approxbilinear":
		return ApproxBilinear, nil
	case "", "bilinear", "linear":
		return Bilinear, nil
	case "catmull_rom", "catmullrom", "bicubic", "cubic":
		return CatmullRom, nil
	default:
		return 0, fmt.Errorf("resample: unknown interpolation %q", s)
	}
}

func (i Interpolation) kernel() xdraw.Interpolator {
	switch i {
	case Nearest:
		return xdraw.NearestNeighbor
	case ApproxBilinear:
		return xdraw.ApproxBiLinear
	case CatmullRom:
		return xdraw.CatmullRom
	default:
		return xdraw.BiLinear
	}
}
