// Package ledger implements the append-only payment-attempt record stored in
// an order's transaction_details blob. Every payment attempt, including failed
// ones, stays in the ledger forever; the blob is only ever appended to.
package ledger

import (
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"fulfillment/internal/identity"
)

// Payment modes recorded on manual confirmation. Gateway entries carry
// whatever mode string the gateway reported (e.g. "card").
const (
	ModeBankTransfer = "Bank Transfer"
	ModeCash         = "Cash"
	ModeCheque       = "Cheque"
)

// Entry statuses. These are per-attempt and wider than the order-level
// payment_status vocabulary.
const (
	StatusPaid       = "paid"
	StatusPending    = "pending"
	StatusFailed     = "failed"
	StatusIncomplete = "incomplete"
	StatusCancelled  = "cancelled"
)

// Entry is one payment attempt.
type Entry struct {
	ID            string `json:"id,omitempty"`
	PaymentMode   string `json:"payment_mode,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	ManualEntry   bool   `json:"manual_entry,omitempty"`

	Timestamp     *time.Time `json:"timestamp,omitempty"`
	PaymentStatus string     `json:"payment_status,omitempty"`

	OfflineDetails *OfflineDetails  `json:"offline_details,omitempty"`
	AmountTotal    *decimal.Decimal `json:"amount_total,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	ReceiptURL     string           `json:"receipt_url,omitempty"`
	PaymentDetails *CardDetails     `json:"payment_details,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

// OfflineDetails carries the mode-specific evidence for manual confirmations.
type OfflineDetails struct {
	SenderBank    string `json:"sender_bank,omitempty"`
	CollectorName string `json:"collector_name,omitempty"`
	ChequeNumber  string `json:"cheque_number,omitempty"`
	ChequeBank    string `json:"cheque_bank,omitempty"`
}

type CardDetails struct {
	Brand string `json:"brand,omitempty"`
	Last4 string `json:"last4,omitempty"`
}

// Empty reports whether the entry is a structurally empty legacy placeholder:
// no mode, no transaction id, no session id.
func (e Entry) Empty() bool {
	return e.PaymentMode == "" && e.TransactionID == "" && e.SessionID == ""
}

// Parse decodes the stored blob. It tolerates an empty blob, a legacy single
// object (normalized to a one-element list) and unparsable data. Malformed
// data is logged and treated as empty rather than blocking the order update.
func Parse(raw datatypes.JSON) []Entry {
	if len(raw) == 0 || string(raw) == "null" {
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries
	}
	var single Entry
	if err := json.Unmarshal(raw, &single); err == nil {
		return []Entry{single}
	}
	// The blob may itself be a JSON-encoded string holding the real payload.
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil && nested != "" {
		return Parse(datatypes.JSON(nested))
	}
	log.Printf("ledger: discarding malformed transaction_details blob (%d bytes)", len(raw))
	return []Entry{}
}

// Append adds an entry to the stored ledger and re-serializes it. Existing
// entries are never dropped, including failed attempts.
func Append(raw datatypes.JSON, entry Entry) (datatypes.JSON, error) {
	entries := append(Parse(raw), entry)
	b, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// View reconstructs the entries visible to a role: empty placeholders are
// dropped, non-super-admins see only successful attempts, and the result is
// sorted most recent first with missing timestamps last.
func View(raw datatypes.JSON, role identity.Role) []Entry {
	parsed := Parse(raw)
	visible := make([]Entry, 0, len(parsed))
	for _, e := range parsed {
		if e.Empty() {
			continue
		}
		if role != identity.RoleSuperAdmin && e.PaymentStatus != StatusPaid {
			continue
		}
		visible = append(visible, e)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i].Timestamp, visible[j].Timestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return visible
}

// HasSuccessfulPayment reports whether any attempt succeeded. It gates the
// "view payment details" affordance for roles that cannot see failed entries.
func HasSuccessfulPayment(raw datatypes.JSON) bool {
	for _, e := range Parse(raw) {
		if !e.Empty() && e.PaymentStatus == StatusPaid {
			return true
		}
	}
	return false
}
