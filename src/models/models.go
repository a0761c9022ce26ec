package models

// ChannelAmounts holds the COP deposits entered for each payment channel.
// Amounts arrive as free text from the client and are coerced to 0 when
// malformed, so the numeric fields here are already normalized.
type ChannelAmounts struct {
	Nequi       float64 `json:"nequi"`
	Bancolombia float64 `json:"bancolombia"`
	Daviplata   float64 `json:"daviplata"`
}

// Breakdown is the derived result of a liquidation computation.
type Breakdown struct {
	GrossAmountCOP float64 `json:"gross_amount_cop"`
	CommissionCOP  float64 `json:"commission_cop"`
	NetAmountCOP   float64 `json:"net_amount_cop"`
	TotalBRL       float64 `json:"total_brl"`
}

// ProofReference points at the stored proof-of-payment file for a record.
// StoredName is the server-side handle (UUID-derived file name under the
// uploads dir); Name is the original client file name shown to the user.
type ProofReference struct {
	Name       string `json:"name"`
	StoredName string `json:"stored_name"`
	MIMEType   string `json:"mime_type"`
}

// LiquidationRecord is a confirmed liquidation. Derived fields are always
// recomputed from the channel amounts and rate, never edited directly.
type LiquidationRecord struct {
	ID   string `json:"id"`
	Date string `json:"date"` // YYYY-MM-DD

	Channels       ChannelAmounts `json:"channels"`
	GrossAmountCOP float64        `json:"gross_amount_cop"`
	CommissionCOP  float64        `json:"commission_cop"`
	NetAmountCOP   float64        `json:"net_amount_cop"`
	ExchangeRate   float64        `json:"exchange_rate"` // BRL expressed in COP
	TotalBRL       float64        `json:"total_brl"`

	Proof ProofReference `json:"proof"`
}
