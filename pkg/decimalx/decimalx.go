package decimalx

import "github.com/shopspring/decimal"

var (
	two   = decimal.NewFromInt(2)
	three = decimal.NewFromInt(3)
)

func MustFromString(s string) decimal.Decimal {
	f, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return f
}

// ExceedsTwoThirds reports whether part > 2/3 * whole, compared without rounding.
func ExceedsTwoThirds(part, whole decimal.Decimal) bool {
	return part.Mul(three).GreaterThan(whole.Mul(two))
}
