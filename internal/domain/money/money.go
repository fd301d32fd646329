// 金額はすべてkuruş(int64)で持つ。小数は入力と表示のときだけ
package money

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 通貨
const Currency = "TRY"

const currencySymbol = "TL"

var (
	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.Turkish)
)

// "49.90" → 4990（四捨五入）
func ToMinorUnits(major string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(major))
	if err != nil {
		return 0, errors.Wrapf(err, "parse amount %q", major)
	}
	return ToMinorUnitsDecimal(d), nil
}

func ToMinorUnitsDecimal(major decimal.Decimal) int64 {
	return major.Mul(hundred).Round(0).IntPart()
}

func ToMajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// 表示用 300000 → "3.000,00 TL"
func Format(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole, frac := minor/100, minor%100
	return fmt.Sprintf("%s%s,%02d %s", sign, printer.Sprintf("%d", whole), frac, currencySymbol)
}

// round(amount * percentage / 100)
func PercentageDiscount(amount, percentage int64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(percentage)).
		Div(hundred).
		Round(0).
		IntPart()
}

// 0未満にはしない
func ApplyDiscount(amount, discount int64) int64 {
	if discount >= amount {
		return 0
	}
	return amount - discount
}
