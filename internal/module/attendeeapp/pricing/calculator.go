package pricing

import (
	"time"

	"github.com/eventhive/eh-registration/internal/module/attendeeapp/ticket"
)

// ValidatePromoCode applies the eligibility rules of spec'd promo usage
// against the discountable amount. It never mutates state and reports every
// ineligibility as nil rather than an error; incrementing the usage counter
// belongs to the confirmation step.
func ValidatePromoCode(promo *DiscountCode, ticketTypeID string, amount float64, now time.Time) *PromoCodeDetail {
	if promo == nil || !promo.IsActive {
		return nil
	}

	if promo.ValidFrom != nil && now.Before(*promo.ValidFrom) {
		return nil
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return nil
	}
	if promo.MaxUses != nil && promo.UsedCount >= *promo.MaxUses {
		return nil
	}
	if promo.MinPurchaseAmount != nil && amount < *promo.MinPurchaseAmount {
		return nil
	}
	if len(promo.ApplicableTicketTypes) > 0 {
		applicable := false
		for _, id := range promo.ApplicableTicketTypes {
			if id == ticketTypeID {
				applicable = true
				break
			}
		}
		if !applicable {
			return nil
		}
	}

	var discountAmount float64
	switch promo.DiscountType {
	case DiscountTypePercentage:
		discountAmount = amount * promo.Value / 100
	default:
		discountAmount = promo.Value
		if discountAmount > amount {
			discountAmount = amount
		}
	}

	return &PromoCodeDetail{
		Code:           promo.Code,
		DiscountType:   promo.DiscountType,
		Value:          promo.Value,
		DiscountAmount: discountAmount,
	}
}

// Calculate prices a purchase of quantity tickets against a ticket type
// snapshot. The early-bird rate folds into the subtotal; group and promo
// discounts subtract from it. Pure by construction so repeated calls over
// the same inputs yield identical breakdowns.
func Calculate(t ticket.TicketType, quantity int64, promo *DiscountCode, now time.Time) PriceBreakdown {
	breakdown := PriceBreakdown{
		BasePrice: t.BasePrice,
		Quantity:  quantity,
	}

	perTicketPrice := t.BasePrice

	if t.IsEarlyBird && t.EarlyBirdPrice != nil {
		active := true
		if t.EarlyBirdEnds != nil && now.After(*t.EarlyBirdEnds) {
			active = false
		}
		if t.EarlyBirdCapacity != nil && t.EarlyBirdSold >= *t.EarlyBirdCapacity {
			active = false
		}

		if active {
			earlyBirdPrice := *t.EarlyBirdPrice
			breakdown.EarlyBirdDiscount = (t.BasePrice - earlyBirdPrice) * float64(quantity)
			perTicketPrice = earlyBirdPrice
			breakdown.DiscountDetails.EarlyBird = &EarlyBirdDetail{
				OriginalPrice:     t.BasePrice,
				DiscountedPrice:   earlyBirdPrice,
				DiscountPerTicket: t.BasePrice - earlyBirdPrice,
				TotalDiscount:     breakdown.EarlyBirdDiscount,
			}
		}
	}

	breakdown.Subtotal = perTicketPrice * float64(quantity)

	if t.GroupDiscountEnabled && len(t.GroupDiscountRules) > 0 && quantity > 1 {
		// Steepest qualifying tier wins: the rule with the largest
		// min_quantity the purchase still satisfies.
		var applicable *ticket.GroupDiscountRule
		for i := range t.GroupDiscountRules {
			rule := t.GroupDiscountRules[i]
			if quantity < rule.MinQuantity {
				continue
			}
			if applicable == nil || rule.MinQuantity > applicable.MinQuantity {
				applicable = &t.GroupDiscountRules[i]
			}
		}

		if applicable != nil {
			breakdown.GroupDiscount = breakdown.Subtotal * applicable.DiscountPercent / 100
			breakdown.DiscountDetails.GroupDiscount = &GroupDiscountDetail{
				Quantity:        quantity,
				MinQuantity:     applicable.MinQuantity,
				DiscountPercent: applicable.DiscountPercent,
				DiscountAmount:  breakdown.GroupDiscount,
			}
		}
	}

	if promoDetail := ValidatePromoCode(promo, t.ID, breakdown.Subtotal-breakdown.GroupDiscount, now); promoDetail != nil {
		breakdown.PromoCodeDiscount = promoDetail.DiscountAmount
		breakdown.DiscountDetails.PromoCode = promoDetail
	}

	breakdown.TotalDiscount = breakdown.EarlyBirdDiscount + breakdown.GroupDiscount + breakdown.PromoCodeDiscount

	breakdown.FinalPrice = breakdown.Subtotal - breakdown.GroupDiscount - breakdown.PromoCodeDiscount
	if breakdown.FinalPrice < 0 {
		breakdown.FinalPrice = 0
	}

	if quantity > 0 {
		breakdown.PerTicketPrice = breakdown.FinalPrice / float64(quantity)
	}

	return breakdown
}
