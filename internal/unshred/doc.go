// Package unshred reassembles an image that was cut into equal-width vertical
// strips and shuffled.
//
// The pipeline works on a flat row-major buffer of packed 0xRRGGBB pixels:
//
//  1. BuildProfiles reads the outermost pixel column on each side of every strip.
//  2. NewDistanceMatrix scores every ordered strip pair by summed per-row
//     Euclidean RGB distance between the touching edges.
//  3. NewMatchTable picks each strip's best right and left neighbor.
//  4. BuildChain grows a chain from strip 0 through mutual best matches and
//     rotates it so the weakest junction becomes the image boundary.
//  5. Composite copies the strips into a new buffer in that order.
//
// Converting to and from image.Image is the caller's job; see the imaging
// package. Nothing here reads files or terminates the process.
package unshred
