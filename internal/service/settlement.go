package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SettlementInput — вход расчёта по завершённой броне.
// discount уже вычислен промо-коллаборатором и приходит готовым числом.
type SettlementInput struct {
	ServicePrice   decimal.Decimal
	DiscountAmount decimal.Decimal
	Tip            decimal.Decimal
	// Доля мастера, %.
	CommissionPct float64
	// Доля платформы, %.
	PlatformFeePct float64
}

// SettlementResult — трёхстороннее разбиение выручки.
// Инвариант: PlatformFee + BranchAmount + StylistEarnings == Net, точно,
// без потерянных и задвоенных копеек. Чаевые идут мастеру целиком и в
// разбиении не участвуют.
type SettlementResult struct {
	Net             decimal.Decimal
	PlatformFee     decimal.Decimal
	BranchAmount    decimal.Decimal
	StylistEarnings decimal.Decimal
	// StylistPayout = StylistEarnings + Tip.
	StylistPayout decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Settle выполняет расчёт в фиксированном порядке округления:
//
//	net      = service_price − discount
//	platform = round(net × platform_pct / 100, 2)
//	stylist  = round(net × commission_pct / 100, 2)
//	branch   = net − platform − stylist
//
// Порядок менять нельзя — от него зависит, кому достаётся остаток
// округления (филиалу). Отрицательный остаток означает, что проценты
// настроены невозможно, — это ErrCommissionConfig, а не тихий clamp.
func Settle(in SettlementInput) (SettlementResult, error) {
	if in.ServicePrice.IsNegative() || in.DiscountAmount.IsNegative() || in.Tip.IsNegative() {
		return SettlementResult{}, fmt.Errorf("%w: negative amount in input", ErrCommissionConfig)
	}
	if in.CommissionPct < 0 || in.PlatformFeePct < 0 {
		return SettlementResult{}, fmt.Errorf("%w: negative percentage", ErrCommissionConfig)
	}

	net := in.ServicePrice.Sub(in.DiscountAmount)
	if net.IsNegative() {
		return SettlementResult{}, fmt.Errorf("%w: discount exceeds service price", ErrCommissionConfig)
	}

	platformFee := net.Mul(decimal.NewFromFloat(in.PlatformFeePct)).Div(hundred).Round(2)
	stylistEarnings := net.Mul(decimal.NewFromFloat(in.CommissionPct)).Div(hundred).Round(2)

	branchAmount := net.Sub(platformFee).Sub(stylistEarnings)
	if branchAmount.IsNegative() {
		return SettlementResult{}, fmt.Errorf(
			"%w: platform %.2f%% + commission %.2f%% leave negative branch remainder",
			ErrCommissionConfig, in.PlatformFeePct, in.CommissionPct,
		)
	}

	return SettlementResult{
		Net:             net,
		PlatformFee:     platformFee,
		BranchAmount:    branchAmount,
		StylistEarnings: stylistEarnings,
		StylistPayout:   stylistEarnings.Add(in.Tip),
	}, nil
}
