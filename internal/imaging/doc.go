// Package imaging adapts image.Image values to the flat pixel buffers used by
// the unshred package, and provides the image-level tools built around it.
//
// This package converts decoded images to and from unshred.PixelBuffer, loads
// and caches image files, shreds images into shuffled strips, and renders
// helper views (strip crops, strip boundary overlays, edge color summaries,
// image comparisons). All coordinates are 0-based with (0,0) at the top-left
// corner, X increasing rightward and Y increasing downward.
//
// # Pixel Buffers
//
// A Frame holds a row-major buffer of packed 0xRRGGBB values. Alpha is not
// carried: images are flattened through an RGBA copy, so translucent pixels
// are read as if composited over black.
//
// # Strips
//
// Strip i of an image n strips wide covers columns [i*w, (i+1)*w) where
// w = width / n. Functions taking a strip count reject counts that do not
// divide the width with unshred.ErrInvalidArgument.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and may be called concurrently.
//
// # Error Handling
//
// Decode failures and empty images wrap unshred.ErrPixelAcquisition so callers
// can tell a bad source apart from a failed reconstruction. Encoding and file
// errors are returned wrapped with context.
package imaging
