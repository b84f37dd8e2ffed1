package utils

import (
	"fmt"

	"vehicleinventory/db"
)

var documentPrefixes = map[string]string{
	db.CounterInvoiceNo:       "INV",
	db.CounterGRNNo:           "GRN",
	db.CounterEstimateInvoice: "EST",
}

// DocumentPrefix returns the printed prefix for a counter, or "" when the
// counter is shown as a bare number.
func DocumentPrefix(counterID string) string {
	return documentPrefixes[counterID]
}

// FormatDocumentNumber renders n zero-padded to six digits, e.g. INV000042.
func FormatDocumentNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s%06d", prefix, n)
}
