// Package geotape composes geometric image augmentations into a single
// homogeneous transform.
//
// # Overview
//
// An augmentation config names operations (resize, crop, rotate, flip,
// random_zoom, affine_transform, shear) together with their parameters.
// geotape folds them into one 3x3 matrix and an output canvas size. The
// same matrix is then used to warp the image (package resample) and to map
// annotation geometry (package annotate), so labels stay aligned with
// pixels by construction.
//
// # Quick Start
//
//	cfg := geotape.Config{
//	    "resize": map[string]any{"enabled": true, "width": 416, "height": 416, "mode": "fit_within"},
//	    "rotate": map[string]any{"enabled": true, "angle_degrees": 15},
//	}
//	res, err := geotape.Compose(cfg, 1280, 720)
//	if err != nil {
//	    return err
//	}
//	p := res.Matrix.TransformPoint(geotape.Pt(640, 360))
//
// # Pipeline
//
// Composition happens in two steps:
//   - Resolve turns the loosely typed Config into a Tape: enabled geometric
//     operations only, parameters coerced and defaulted, in the fixed
//     canonical order resize, crop, rotate, flip, random_zoom,
//     affine_transform, shear. Input order never matters.
//   - Build walks the tape, computing one elementary matrix per operation
//     from the canvas size left by the previous step and pre-multiplying it
//     onto the running matrix.
//
// # Coordinate System
//
//   - Origin (0,0) at the top-left corner of the canvas
//   - X increases right, Y increases down
//   - Positive angles turn clockwise on screen
//
// # Randomness
//
// random_zoom and random crops draw from a PCG generator keyed on the
// operation's seed. With an explicit seed the result is reproducible on any
// goroutine; without one the resolver picks a fresh seed and the tape is
// not reproducible.
//
// # Errors
//
// Failures are reported as *InvalidOperationError, *InvalidParameterError
// or *DegenerateTransformError, matching ErrInvalidOperation,
// ErrInvalidParameter and ErrDegenerateTransform through errors.Is.
// Composition is fail-fast and never returns a partial result.
//
// # Concurrency
//
// Resolve and Build are pure functions and safe for concurrent use.
// Engine adds a sharded result cache keyed by tape and original size.
package geotape
