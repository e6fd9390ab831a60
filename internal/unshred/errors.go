package unshred

import "errors"

// Sentinel errors returned by the reconstruction pipeline. Callers match them
// with errors.Is; the pipeline wraps them with context via fmt.Errorf("...: %w").
var (
	// ErrInvalidArgument reports unusable input: a non-positive strip count,
	// non-positive dimensions, a width that is not a multiple of the strip
	// count, a pixel buffer whose length disagrees with the dimensions, or a
	// strip order that is not a permutation.
	ErrInvalidArgument = errors.New("unshred: invalid argument")

	// ErrIncompleteReconstruction reports that the mutual-best-match chain did
	// not reach every strip, so no full ordering could be inferred.
	ErrIncompleteReconstruction = errors.New("unshred: incomplete reconstruction")

	// ErrPixelAcquisition reports that a source image could not be turned into
	// a pixel buffer. It is raised by adapters at the image boundary, never by
	// the pipeline itself.
	ErrPixelAcquisition = errors.New("unshred: pixel acquisition failed")
)
