package processors

import (
	"strconv"
	"strings"

	"github.com/username/liquidador/src/models"
)

// CommissionRate is the fixed liquidation commission. It is intentionally not
// configurable.
const CommissionRate = 0.10

// LiquidationProcessor derives commission, net amount and BRL total from the
// three channel deposits and the exchange rate. It is pure computation with
// no side effects; callers re-run it on every input change.
type LiquidationProcessor struct{}

func NewLiquidationProcessor() *LiquidationProcessor {
	return &LiquidationProcessor{}
}

// Compute applies the liquidation formula:
//
//	gross      = nequi + bancolombia + daviplata
//	commission = gross * 0.10
//	net        = gross - commission
//	totalBRL   = net / rate   (0 when rate is absent or non-positive)
func (p *LiquidationProcessor) Compute(amounts models.ChannelAmounts, rate float64) models.Breakdown {
	gross := amounts.Nequi + amounts.Bancolombia + amounts.Daviplata
	commission := gross * CommissionRate
	net := gross - commission

	totalBRL := 0.0
	if rate > 0 {
		totalBRL = net / rate
	}

	return models.Breakdown{
		GrossAmountCOP: gross,
		CommissionCOP:  commission,
		NetAmountCOP:   net,
		TotalBRL:       totalBRL,
	}
}

// ParseAmount converts a free-text channel amount to a float64. Malformed or
// empty input coerces to 0 rather than erroring, matching the form contract.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
