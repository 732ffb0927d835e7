// Package imagehash implements perceptual image hashing and the
// image-similarity matcher.
//
// The hash is a 64-bit frequency-domain signature: the image is reduced
// to 32x32 grayscale, transformed with a 2-D DCT, and the 8x8
// low-frequency block is thresholded against its median. Similarity is
// the Hamming distance between hashes; the matcher reports candidates
// within a tunable threshold, ranked ascending by distance.
package imagehash
