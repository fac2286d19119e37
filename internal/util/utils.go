package util

import (
	"cmp"
	"os"
	"path/filepath"
	"strings"
)

// Float covers the floating point types the renderer works with.
type Float interface {
	~float32 | ~float64
}

// Lerp performs linear interpolation between a and b with t in [0,1]
func Lerp[T Float](a, b, t T) T {
	return a + t*(b-a)
}

// Clamp restricts a value to be between min and max
func Clamp[T cmp.Ordered](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// FileExists checks if a regular file exists
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// GetFileNameWithoutExt returns the file name without its extension
func GetFileNameWithoutExt(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RollingAverage keeps the mean of the last n samples.
// The zero value is unusable; create one with NewRollingAverage.
type RollingAverage struct {
	samples []float64
	next    int
	count   int
	sum     float64
}

// NewRollingAverage creates a window of n samples (n < 1 is treated as 1).
func NewRollingAverage(n int) *RollingAverage {
	if n < 1 {
		n = 1
	}
	return &RollingAverage{samples: make([]float64, n)}
}

// Add records a sample and returns the current average.
func (r *RollingAverage) Add(v float64) float64 {
	if r.count == len(r.samples) {
		r.sum -= r.samples[r.next]
	} else {
		r.count++
	}
	r.samples[r.next] = v
	r.sum += v
	r.next = (r.next + 1) % len(r.samples)
	return r.Average()
}

// Average returns the mean of the recorded samples, 0 when empty.
func (r *RollingAverage) Average() float64 {
	if r.count == 0 {
		return 0
	}
	return r.sum / float64(r.count)
}
