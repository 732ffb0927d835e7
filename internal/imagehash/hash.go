package imagehash

import (
	"fmt"
	"image"
	"math"
	"math/bits"
	"sort"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP decode support
)

const (
	// BitLength is the fixed width of a perceptual hash.
	BitLength = 64

	// dctSize is the working resolution before the frequency transform.
	// The 8x8 low-frequency corner of a 32x32 DCT yields the 64 hash bits.
	dctSize = 32
	// hashSize is the side of the retained low-frequency block.
	hashSize = 8
)

// Hash is a 64-bit DCT-based perceptual hash. Visually similar images
// (minor scaling, recompression) produce nearby hashes under Hamming
// distance.
type Hash uint64

// FromImage computes the perceptual hash of a decoded image: grayscale,
// resize to 32x32, 2-D DCT, then threshold the 8x8 low-frequency block
// against its median.
func FromImage(img image.Image) Hash {
	gray := imaging.Grayscale(imaging.Resize(img, dctSize, dctSize, imaging.Lanczos))

	var px [dctSize][dctSize]float64
	for y := 0; y < dctSize; y++ {
		for x := 0; x < dctSize; x++ {
			px[y][x] = float64(gray.NRGBAAt(x, y).R)
		}
	}

	freq := dct2d(px)

	values := make([]float64, 0, hashSize*hashSize)
	for y := 0; y < hashSize; y++ {
		for x := 0; x < hashSize; x++ {
			values = append(values, freq[y][x])
		}
	}
	med := median(values)

	var h Hash
	for y := 0; y < hashSize; y++ {
		for x := 0; x < hashSize; x++ {
			h <<= 1
			if freq[y][x] >= med {
				h |= 1
			}
		}
	}
	return h
}

// FromFile decodes and hashes an image file, honoring EXIF orientation.
func FromFile(path string) (Hash, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return FromImage(img), nil
}

// Distance returns the Hamming distance between two hashes: the number of
// differing bits, 0 for identical images up to hashing resolution.
func Distance(a, b Hash) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// SimilarityPercent converts a Hamming distance to a similarity
// percentage: distance 0 yields 100, distance BitLength yields 0.
func SimilarityPercent(distance int) int {
	return int(math.Round((1 - float64(distance)/float64(BitLength)) * 100))
}

// String renders the hash as 16 hex digits.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// dct2d applies a separable 2-D DCT-II with orthonormal scaling.
func dct2d(px [dctSize][dctSize]float64) [dctSize][dctSize]float64 {
	var tmp, out [dctSize][dctSize]float64
	for y := 0; y < dctSize; y++ {
		tmp[y] = dct1d(px[y])
	}
	for x := 0; x < dctSize; x++ {
		var col [dctSize]float64
		for y := 0; y < dctSize; y++ {
			col[y] = tmp[y][x]
		}
		col = dct1d(col)
		for y := 0; y < dctSize; y++ {
			out[y][x] = col[y]
		}
	}
	return out
}

func dct1d(in [dctSize]float64) [dctSize]float64 {
	var out [dctSize]float64
	n := float64(dctSize)
	for k := 0; k < dctSize; k++ {
		var sum float64
		for i := 0; i < dctSize; i++ {
			sum += in[i] * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*n))
		}
		scale := math.Sqrt(2 / n)
		if k == 0 {
			scale = math.Sqrt(1 / n)
		}
		out[k] = sum * scale
	}
	return out
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
