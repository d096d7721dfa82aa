package service

import "github.com/shopspring/decimal"

// Stock columns are NUMERIC(14, 3).
const quantityScale = 3

var maxQuantity = decimal.New(1, 11)

// checkQuantity rejects amounts the stock columns cannot hold exactly.
func checkQuantity(field string, q decimal.Decimal) error {
	if !q.Equal(q.Truncate(quantityScale)) {
		return invalid(field, "%s has more than %d decimal places", q, quantityScale)
	}
	if q.Abs().GreaterThanOrEqual(maxQuantity) {
		return invalid(field, "%s is out of range", q)
	}
	return nil
}
