package storebolt

import (
	"strconv"
	"strings"

	"github.com/cuemby/tablemapper/pkg/avalue"
)

func numericOrZero(v avalue.AttributeValue) float64 {
	if v.N == nil {
		return 0
	}
	f, err := strconv.ParseFloat(*v.N, 64)
	if err != nil {
		return 0
	}
	return f
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// compareNumericStrings compares two decimal-string-encoded numbers
// numerically rather than lexicographically.
func compareNumericStrings(a, b string) int {
	af, aerr := strconv.ParseFloat(a, 64)
	bf, berr := strconv.ParseFloat(b, 64)
	if aerr != nil || berr != nil {
		return strings.Compare(a, b)
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}
