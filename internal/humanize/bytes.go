// Package humanize renders byte counts for log output.
package humanize

import (
	"math"
	"strconv"
)

var units = [...]string{"B", "KB", "MB", "GB", "TB"}

// Bytes formats a byte count with the largest unit up to TB that keeps the
// scaled value below 1024, rounded to two decimal places.
func Bytes(n uint64) string {
	if n == 0 {
		return "0 B"
	}

	exp := 0
	for v := n; v >= 1024 && exp < len(units)-1; v /= 1024 {
		exp++
	}

	size := math.Round(float64(n)/math.Pow(1024, float64(exp))*100) / 100
	return strconv.FormatFloat(size, 'f', -1, 64) + " " + units[exp]
}
