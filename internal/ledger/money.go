package ledger

import (
	"math"
	"strconv"
)

// ToMoneyString formats amount with exactly two decimals. Non-finite input
// formats as "0.00".
func ToMoneyString(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "0.00"
	}
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}
