package composer

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// formatAmount renders an amount as "<CODE> 1,234.50" with a fixed number of
// decimal places. Rows and totals go through the same function.
func formatAmount(currency string, places int32, amount decimal.Decimal) string {
	fixed := amount.StringFixed(places)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(fixed, ".")
	out := sign + groupThousands(intPart)
	if hasFrac {
		out += "." + fracPart
	}
	if currency == "" {
		return out
	}
	return currency + " " + out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// truncate collapses whitespace and hard-cuts s to at most limit runes.
func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// hasPrecision reports whether amount needs no more than places decimals.
func hasPrecision(amount decimal.Decimal, places int32) bool {
	return amount.Equal(amount.Truncate(places))
}
