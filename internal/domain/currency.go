package domain

import "github.com/shopspring/decimal"

type Currency string

const (
	CurrencyDollar Currency = "DOLLAR"
	CurrencyRupee  Currency = "RUPEE"
	CurrencyYen    Currency = "YEN"
	CurrencyEuro   Currency = "EURO"
)

// Conversion factors relative to the dollar. The set is closed: adding a
// currency means adding it here and nowhere else.
var currencyFactors = map[Currency]decimal.Decimal{
	CurrencyDollar: decimal.NewFromInt(1),
	CurrencyRupee:  decimal.NewFromInt(80),
	CurrencyYen:    decimal.NewFromInt(160),
	CurrencyEuro:   decimal.RequireFromString("0.8"),
}

func (c Currency) IsValid() bool {
	_, ok := currencyFactors[c]
	return ok
}

func (c Currency) Factor() decimal.Decimal {
	return currencyFactors[c]
}

// ConvertTo expresses amount, denominated in c, in target's units:
// amount * target.factor / c.factor.
func (c Currency) ConvertTo(target Currency, amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(currencyFactors[target]).Div(currencyFactors[c])
}

func Currencies() []Currency {
	return []Currency{CurrencyDollar, CurrencyRupee, CurrencyYen, CurrencyEuro}
}
