package recommend

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/e-mutai/pesa-smart-guide/entities"
)

// formatAmount renders a major-unit amount in currency, e.g. "KSh5,000.00".
// Unknown currencies and non-finite amounts yield an empty string.
func formatAmount(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil || !entities.Finite(amount) {
		return ""
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}
