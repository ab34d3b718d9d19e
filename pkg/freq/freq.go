// Package freq holds clock frequency values and the "1/N" divider ratio
// arithmetic used when a divider selection changes.
//
// A [Frequency] is a numeric value plus a unit label. Values are produced by
// [Divide] (integer floor of base/N, always MHz) and [Derive] (a further
// secondary division that is not floored; results under 1MHz are reported
// in KHz):
//
//	n, _ := freq.ParseRatio("1/4")       // 4
//	primary := freq.Divide(480, n)        // 120
//	freq.Derive(primary, 4).String()      // "30MHz"
//	freq.Derive(3, 4).String()            // "750KHz"
package freq

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/clocktree/pkg/errors"
)

// Unit is a frequency unit label.
type Unit string

// Supported units.
const (
	MHz Unit = "MHz"
	KHz Unit = "KHz"
)

// Frequency is a displayed frequency annotation.
type Frequency struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// String formats the frequency the way it is drawn, e.g. "240MHz", "750KHz", "2.5MHz".
func (f Frequency) String() string {
	v := math.Round(f.Value*1e6) / 1e6
	return strconv.FormatFloat(v, 'f', -1, 64) + string(f.Unit)
}

// Below reports whether the numeric value is under threshold. The unit is
// ignored: a 750KHz annotation compares as 750.
func (f Frequency) Below(threshold float64) bool {
	return f.Value < threshold
}

// MHzValue returns the frequency expressed in MHz.
func (f Frequency) MHzValue() float64 {
	if f.Unit == KHz {
		return f.Value / 1000
	}
	return f.Value
}

var (
	ratioRe = regexp.MustCompile(`^\s*1\s*/\s*(\d+)\s*$`)
	freqRe  = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*(mhz|khz)\s*$`)
)

// ParseRatio extracts N from a "1/N" option label. N must be at least 1.
// Any other text is a MALFORMED_RATIO error.
func ParseRatio(text string) (int, error) {
	m := ratioRe.FindStringSubmatch(text)
	if m == nil {
		return 0, errors.New(errors.ErrCodeMalformedRatio, "option %q is not of the form 1/N", text)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, errors.New(errors.ErrCodeMalformedRatio, "option %q has an invalid divisor", text)
	}
	return n, nil
}

// Parse reads an annotation such as "160MHz" or "750 KHz".
func Parse(s string) (Frequency, error) {
	m := freqRe.FindStringSubmatch(s)
	if m == nil {
		return Frequency{}, errors.New(errors.ErrCodeInvalidInput, "invalid frequency %q", s)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Frequency{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid frequency %q", s)
	}
	unit := MHz
	if strings.EqualFold(m[2], "khz") {
		unit = KHz
	}
	return Frequency{Value: v, Unit: unit}, nil
}

// Divide returns floor(baseMHz/n).
func Divide(baseMHz float64, n int) float64 {
	return math.Floor(baseMHz / float64(n))
}

// Derive divides primaryMHz by factor without flooring. A quotient of at
// least 1 stays in MHz; smaller quotients are scaled by 1000 and reported in KHz.
func Derive(primaryMHz, factor float64) Frequency {
	q := primaryMHz / factor
	if q >= 1 {
		return Frequency{Value: q, Unit: MHz}
	}
	return Frequency{Value: q * 1000, Unit: KHz}
}
