// README: Discount amount computation per discount type, clamped to the order.
package coupon

import "math"

// DiscountFor turns a valid coupon into a discount in cents. The result is
// always within [0, orderAmountCents]; the new total can reach zero but
// never goes negative. Adding a discount type is a change to this switch
// only.
func DiscountFor(c *Coupon, orderAmountCents, baseFareCents int64) int64 {
	var discount int64
	switch c.DiscountType {
	case DiscountPercentage:
		discount = int64(math.Floor(float64(orderAmountCents)*float64(c.DiscountValue)/100 + 0.5))
	case DiscountFixedAmount:
		discount = c.DiscountValue
	case DiscountFreeDelivery:
		discount = baseFareCents
	default:
		discount = 0
	}
	if discount > orderAmountCents {
		discount = orderAmountCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
