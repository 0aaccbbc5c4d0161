package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToMinorUnits converts a whole major-unit amount (rupees) into gateway minor units (paise).
func ToMinorUnits(amount, factor int64) int64 {
	if factor <= 0 {
		factor = 100
	}
	return amount * factor
}

// FromMinorUnits converts gateway minor units back to whole major units, flooring the remainder.
func FromMinorUnits(minor, factor int64) int64 {
	if factor <= 0 {
		factor = 100
	}
	return minor / factor
}

// FormatAmount renders integer amount with thousand separators and an upper-case currency code.
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%s %s", sign, strings.ToUpper(currency), formatThousand(amount))
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
