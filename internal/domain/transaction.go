package domain

// TxStatus is the normalized payment status. Source exports carry
// locale-specific status strings which map onto this enum through a fixed
// lookup table; refunds arrive as a status, never as a negative amount.
type TxStatus string

const (
	TxPaid     TxStatus = "paid"
	TxFailed   TxStatus = "failed"
	TxPending  TxStatus = "pending"
	TxRefunded TxStatus = "refunded"
)

// TransactionRecord is one normalized payment-export row.
type TransactionRecord struct {
	TxID      string   `json:"txId"`
	TxDate    Date     `json:"txDate"`
	PayerEmail string  `json:"payerEmail"` // normalized; "" when absent or unusable
	PayerName string   `json:"payerName"`  // free text, cleaned
	Amount    float64  `json:"amount"`     // always non-negative
	Status    TxStatus `json:"status"`

	// EncodingSuspect marks rows whose text fields looked mis-decoded and
	// could not be confidently repaired.
	EncodingSuspect bool `json:"encodingSuspect,omitempty"`

	// MatchedUserID is set by the identity matcher; empty means unmatched.
	MatchedUserID string `json:"matchedUserId,omitempty"`
}

// CountsTowardRevenue reports whether the transaction contributes to gross
// revenue totals. Failed, pending and refunded rows do not.
func (t TransactionRecord) CountsTowardRevenue() bool {
	return t.Status == TxPaid
}
