package action

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const wireDecimals = 8

// FloatToWire renders x with at most 8 decimals and no trailing zeros. Values that
// cannot be represented that way are rejected rather than rounded.
func FloatToWire(x float64) (string, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", malformed("cannot encode %v as a wire decimal", x)
	}
	rounded := strconv.FormatFloat(x, 'f', wireDecimals, 64)
	back, err := strconv.ParseFloat(rounded, 64)
	if err != nil {
		return "", malformed("cannot encode %v as a wire decimal: %v", x, err)
	}
	if math.Abs(back-x) >= 1e-12 {
		return "", malformed("%v loses precision at %d decimals", x, wireDecimals)
	}

	s := strings.TrimRight(rounded, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		s = "0"
	}
	return s, nil
}

// FloatToUsdInt converts a USD amount to micro-USD.
func FloatToUsdInt(x float64) (int64, error) {
	return floatToInt(x, 6)
}

// FloatToIntForHashing scales x by 1e8, the fixed point used for numbers inside hashed payloads.
func FloatToIntForHashing(x float64) (int64, error) {
	return floatToInt(x, 8)
}

func floatToInt(x float64, power int) (int64, error) {
	withDecimals := x * math.Pow10(power)
	rounded := math.Round(withDecimals)
	if math.IsNaN(rounded) || math.Abs(rounded) > math.MaxInt64/2 {
		return 0, malformed("%v is out of range", x)
	}
	if math.Abs(rounded-withDecimals) >= 1e-3 {
		return 0, fmt.Errorf("%w: %v has more than %d decimals", ErrMalformedInput, x, power)
	}
	return int64(rounded), nil
}
