// Package detection estimates how a shredded image was cut.
//
// A shredded image shows sharp color discontinuities at the columns where two
// strips that were never neighbors now touch, while columns inside a strip
// change smoothly. DetectStripWidth scores every candidate strip width by how
// much stronger the discontinuities are on its strip boundaries than between
// them, and picks the best.
//
// # Algorithm Overview
//
//  1. Column jumps: for each column x > 0, the mean per-row Euclidean RGB
//     distance between columns x-1 and x.
//  2. Candidates: every strip width of at least minWidth pixels that divides
//     the image width into two or more strips.
//  3. Contrast: mean jump on the candidate's boundary columns divided by the
//     mean jump on all other columns (plus one, to keep flat images finite).
//  4. Selection: highest contrast wins, wider strips win ties. A best contrast
//     under MinContrast means no cut was found and the image is reported as a
//     single strip.
//
// # Limitations
//
// Only visible cuts can be found. An image whose strips happen to still be in
// their original order, or whose content is flat across the cuts, is reported
// as one strip.
package detection
