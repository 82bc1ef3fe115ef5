package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const mmPerInch = 25.4

// MM3 renders a millimeter value fixed to 3 decimals, the canonical text
// form for restored cells and clipboard copies.
func MM3(mm float64) string {
	return strconv.FormatFloat(mm, 'f', 3, 64)
}

// MMToFractionalInches renders a millimeter value as fractional inches at
// the given denominator (8, 16 or 32), optionally splitting whole feet out.
//
// Rounding happens once, on the total count of denominator-sized parts, so
// a value a hair under a whole inch carries into the whole-inch (or foot)
// count instead of rendering as 16/16.
func MMToFractionalInches(mm float64, denom int, showFeet bool) string {
	neg := mm < 0
	inches := math.Abs(mm) / mmPerInch

	total := int(math.Round(inches * float64(denom)))
	if total == 0 {
		return `0"`
	}

	whole := total / denom
	num := total % denom
	den := denom
	if num != 0 {
		g := gcd(num, den)
		num /= g
		den /= g
	}

	feet := 0
	if showFeet {
		feet = whole / 12
		whole %= 12
	}

	// The zero-inch segment is kept for positive sub-inch values ("0 1/2"),
	// dropped for negative ones ("-1/4") and whenever a feet segment leads.
	showWhole := whole > 0 || (feet == 0 && (num == 0 || !neg))

	var parts []string
	if feet > 0 {
		parts = append(parts, fmt.Sprintf("%d'", feet))
	}
	if showWhole {
		parts = append(parts, strconv.Itoa(whole))
	}
	if num != 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", num, den))
	}

	out := strings.Join(parts, " ")
	if showWhole || num != 0 {
		out += `"`
	}
	if neg {
		out = "-" + out
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
