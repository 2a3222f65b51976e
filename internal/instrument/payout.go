package instrument

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNoPayoutBasis = errors.New("payout basis must be positive")

// PayoutFromSale spreads the proceeds of an asset sale evenly across the supply.
func PayoutFromSale(totalProceeds, totalSupply decimal.Decimal) (decimal.Decimal, error) {
	if !totalSupply.IsPositive() {
		return decimal.Zero, ErrInvalidSupply
	}
	if totalProceeds.IsNegative() {
		return decimal.Zero, ErrNoPayoutBasis
	}
	return totalProceeds.DivRound(totalSupply, 12), nil
}

// PayoutFromBond returns principal plus profit per token at maturity.
func PayoutFromBond(principal, profitRate decimal.Decimal) (decimal.Decimal, error) {
	if principal.IsNegative() {
		return decimal.Zero, ErrNegativePrincipal
	}
	return principal.Mul(decimal.NewFromInt(1).Add(profitRate)), nil
}
