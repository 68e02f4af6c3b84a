package normalize

import (
	"io"

	"github.com/costomenu/reconcile/internal/domain"
)

// SourcePayments identifies the payment-provider export.
const SourcePayments = "payments"

var paymentSynonyms = map[string][]string{
	"date":           {"Ημ/νία", "Ημερομηνία", "date", "tx date"},
	"amount":         {"Ποσό", "amount"},
	"transaction id": {"Κωδ. Συν/γης (Viva)", "transaction id", "tx id"},
	"customer":       {"Περιγραφή Πελάτη", "customer description", "customer", "payer name"},
	"email":          {"E-mail", "email", "payer email"},
	"status":         {"Κατάσταση", "status"},
}

// statusVocabulary is the fixed lookup from source-locale status strings to
// the TxStatus enum. Keys are fold-canonicalized; unknown strings are a
// malformed row, never inferred.
var statusVocabulary = map[string]domain.TxStatus{
	"εγκεκριμενη":         domain.TxPaid,
	"ολοκληρωμενη":        domain.TxPaid,
	"πληρωθηκε":           domain.TxPaid,
	"paid":                domain.TxPaid,
	"completed":           domain.TxPaid,
	"captured":            domain.TxPaid,
	"αποτυχημενη":         domain.TxFailed,
	"απορριφθηκε":         domain.TxFailed,
	"ακυρωθηκε":           domain.TxFailed,
	"failed":              domain.TxFailed,
	"declined":            domain.TxFailed,
	"cancelled":           domain.TxFailed,
	"εκκρεμησ":            domain.TxPending,
	"σε εκκρεμοτητα":      domain.TxPending,
	"pending":             domain.TxPending,
	"επιστροφη":           domain.TxRefunded,
	"επιστροφη χρηματων":  domain.TxRefunded,
	"refund":              domain.TxRefunded,
	"refunded":            domain.TxRefunded,
}

// PaymentsResult is the normalizer output for the payment export.
type PaymentsResult struct {
	Transactions []domain.TransactionRecord
	Problems     []domain.RowProblem
	Counts       domain.SourceCounts
}

// ReadPayments normalizes the payment-provider export. Exports overlap
// across files, so rows are deduplicated by provider transaction ID.
// Free-text fields may arrive mis-decoded; they are repaired where possible
// and tagged encoding-suspect otherwise.
func ReadPayments(r io.Reader) (PaymentsResult, error) {
	t, err := readTable(r, SourcePayments, paymentSynonyms, []string{"amount"})
	if err != nil {
		return PaymentsResult{}, err
	}

	res := PaymentsResult{Counts: domain.SourceCounts{Source: SourcePayments, TotalRows: len(t.rows)}}
	seen := make(map[string]struct{}, len(t.rows))

	for i, row := range t.rows {
		line := i + 2
		tx, rowErr := normalizePaymentRow(t, row, line)
		if rowErr != nil {
			res.Problems = append(res.Problems, domain.RowProblem{
				Source: rowErr.Source, Line: rowErr.Line, Field: rowErr.Field, Reason: rowErr.Reason,
			})
			res.Counts.MalformedRows++
			continue
		}
		if tx.TxID != "" {
			if _, dup := seen[tx.TxID]; dup {
				res.Counts.DuplicateRows++
				continue
			}
			seen[tx.TxID] = struct{}{}
		}
		res.Transactions = append(res.Transactions, tx)
		res.Counts.ParsedRows++
	}
	return res, nil
}

func normalizePaymentRow(t *table, row []string, line int) (domain.TransactionRecord, *MalformedRowError) {
	amount, present, err := ParseAmount(t.field(row, "amount"))
	if err != nil {
		return domain.TransactionRecord{}, malformed(SourcePayments, line, "amount", err.Error())
	}
	if !present {
		return domain.TransactionRecord{}, malformed(SourcePayments, line, "amount", "missing amount")
	}

	rawStatus := SanitizeString(t.field(row, "status"))
	status, ok := statusVocabulary[foldKey(rawStatus)]
	if !ok {
		return domain.TransactionRecord{}, malformed(SourcePayments, line, "status", "unrecognized status "+quoted(rawStatus))
	}

	rawEmail := SanitizeString(t.field(row, "email"))
	rawName := SanitizeString(t.field(row, "customer"))

	suspect := false
	if repaired, ok := RepairText(rawEmail); ok {
		rawEmail = repaired
	} else {
		suspect = true
	}
	if repaired, ok := RepairText(rawName); ok {
		rawName = repaired
	} else {
		suspect = true
	}

	id := SanitizeString(t.field(row, "transaction id"))
	if IsMissing(id) {
		id = ""
	}

	return domain.TransactionRecord{
		TxID:            id,
		TxDate:          ParseDate(t.field(row, "date")),
		PayerEmail:      NormalizeEmail(rawEmail),
		PayerName:       rawName,
		Amount:          amount,
		Status:          status,
		EncodingSuspect: suspect,
	}, nil
}

func quoted(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + s + `"`
}
