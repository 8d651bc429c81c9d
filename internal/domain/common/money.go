package common

import "github.com/shopspring/decimal"

// Money amounts are kept as decimals and rounded to cents at every derived step.
const MoneyScale = 2

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// MoneyFromFloat converts a stored float amount (Firestore number) into a cent-rounded decimal.
func MoneyFromFloat(f float64) decimal.Decimal {
	return RoundMoney(decimal.NewFromFloat(f))
}

// MoneyToFloat converts a decimal amount back to the float stored in documents.
func MoneyToFloat(d decimal.Decimal) float64 {
	f, _ := RoundMoney(d).Float64()
	return f
}
