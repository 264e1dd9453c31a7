// Package wallet holds the coupons a user has collected.
package wallet

import "github.com/Zhima-Mochi/minishop-retail/internal/domain/kv"

type CouponStatus string

const (
	StatusActive   CouponStatus = "active"
	StatusRedeemed CouponStatus = "redeemed"
)

type Coupon struct {
	Code      string       `json:"code"`
	Status    CouponStatus `json:"status"`
	ExpiresAt string       `json:"expiresAt"`
}

// Wallet is the coupon list of one user.
type Wallet struct {
	Coupons []Coupon `json:"coupons"`
}

// Repository stores wallets by user identity.
type Repository = kv.Store[Wallet]

func (w Wallet) Clone() Wallet {
	return Wallet{Coupons: append([]Coupon(nil), w.Coupons...)}
}

// DemoWallets is the seed for the demo users.
func DemoWallets() map[string]Wallet {
	save10 := Coupon{Code: "SAVE10", Status: StatusActive, ExpiresAt: "2025-12-31"}
	return map[string]Wallet{
		"guest": {Coupons: []Coupon{save10}},
		"jp":    {Coupons: []Coupon{save10}},
	}
}
