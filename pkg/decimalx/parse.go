package decimalx

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FromStrings 批量解析, 任意一个失败即返回错误
func FromStrings(ss ...string) ([]decimal.Decimal, error) {
	res := make([]decimal.Decimal, len(ss))
	for i, s := range ss {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("parse decimal %q: %w", s, err)
		}
		res[i] = d
	}
	return res, nil
}
