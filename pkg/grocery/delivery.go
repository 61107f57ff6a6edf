package grocery

import "github.com/shopspring/decimal"

const (
	DefaultFreeDeliveryThreshold = 199
	DefaultDeliveryFee           = 25
	DefaultCurrency              = "INR"
)

type DeliveryPolicy struct {
	FreeThreshold float64 `mapstructure:"free_delivery_threshold"`
	Fee           float64 `mapstructure:"delivery_fee"`
	Currency      string  `mapstructure:"currency"`
}

func DefaultDeliveryPolicy() DeliveryPolicy {
	return DeliveryPolicy{
		FreeThreshold: DefaultFreeDeliveryThreshold,
		Fee:           DefaultDeliveryFee,
		Currency:      DefaultCurrency,
	}
}

func (p DeliveryPolicy) withDefaults() DeliveryPolicy {
	if p.FreeThreshold <= 0 {
		p.FreeThreshold = DefaultFreeDeliveryThreshold
	}
	if p.Fee < 0 {
		p.Fee = DefaultDeliveryFee
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return p
}

func (p DeliveryPolicy) FreeDelivery(subtotal float64) bool {
	return subtotal >= p.FreeThreshold
}

// FeeFor is zero at or above the free delivery threshold.
func (p DeliveryPolicy) FeeFor(subtotal float64) float64 {
	if p.FreeDelivery(subtotal) {
		return 0
	}
	return p.Fee
}

// Total adds the delivery fee and rounds to two decimals.
func (p DeliveryPolicy) Total(subtotal float64) float64 {
	return decimal.NewFromFloat(subtotal).
		Add(decimal.NewFromFloat(p.FeeFor(subtotal))).
		Round(2).
		InexactFloat64()
}

type CartSnapshot struct {
	Items                 []LineView `json:"items"`
	Subtotal              float64    `json:"subtotal"`
	ItemCount             int        `json:"item_count"`
	Currency              string     `json:"currency"`
	FreeDeliveryThreshold float64    `json:"free_delivery_threshold"`
	FreeDeliveryEligible  bool       `json:"free_delivery_eligible"`
	// AmountToFreeDelivery is how much more the customer must add, zero when eligible.
	AmountToFreeDelivery float64 `json:"amount_to_free_delivery"`
}

func Snapshot(cart *Cart, policy DeliveryPolicy) CartSnapshot {
	policy = policy.withDefaults()
	subtotal := cart.Subtotal()
	snap := CartSnapshot{
		Items:                 cart.Lines(),
		Subtotal:              subtotal,
		ItemCount:             cart.ItemCount(),
		Currency:              policy.Currency,
		FreeDeliveryThreshold: policy.FreeThreshold,
		FreeDeliveryEligible:  policy.FreeDelivery(subtotal),
	}
	if !snap.FreeDeliveryEligible {
		snap.AmountToFreeDelivery = decimal.NewFromFloat(policy.FreeThreshold).
			Sub(decimal.NewFromFloat(subtotal)).
			Round(2).
			InexactFloat64()
	}
	return snap
}
