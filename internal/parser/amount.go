package parser

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount parses a money amount such as "500", "12.50", "$1,200" or
// "₹350". Negative values are rejected; use --expense instead.
func ParseAmount(input string) (float64, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimLeft(s, "$€£₹ ")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")

	if s == "" {
		return 0, NewAmountError(input)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewAmountError(input)
	}

	// Two decimals is all any currency here needs.
	return math.Round(v*100) / 100, nil
}
