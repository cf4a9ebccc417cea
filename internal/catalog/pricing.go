package catalog

import "souq/internal/store"

// AppliedPrice computes the price after discount. An unknown or empty
// discount type applies no discount. appliedPrice is never written from a
// request payload; every price or discount change goes through here.
func AppliedPrice(price float64, d store.Discount) float64 {
	switch d.Type {
	case store.DiscountPercentage:
		return price - price*d.Amount/100
	case store.DiscountFixed:
		return price - d.Amount
	default:
		return price
	}
}
