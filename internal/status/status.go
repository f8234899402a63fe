// Package status maps the finite-state lifecycles of posting jobs,
// escrow transactions, and conversations to display metadata, and
// exposes the transition rules the console is allowed to act on.
// Business rules live here so the view layer never encodes them.
package status

import (
	"strings"

	"github.com/crosspost/pkg/models"
)

// Kind selects which entity's status vocabulary to interpret.
type Kind string

const (
	KindJob          Kind = "job"
	KindTransaction  Kind = "transaction"
	KindConversation Kind = "conversation"
	KindListing      Kind = "listing"
)

// Severity is the display category a status maps to. It drives badge
// coloring in the views and nothing else.
type Severity string

const (
	SeverityPositive   Severity = "positive"
	SeverityNeutral    Severity = "neutral"
	SeverityNegative   Severity = "negative"
	SeverityInProgress Severity = "in-progress"
)

// Display is the presentation metadata for one status value.
type Display struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

// Posting job statuses. pending -> posting -> {posted | failed};
// failed -> pending only via an explicit retry. posted is terminal.
const (
	JobPending = "pending"
	JobPosting = "posting"
	JobPosted  = "posted"
	JobFailed  = "failed"
)

// MaxJobRetries is the retry budget per job. The count itself is
// server-authoritative; the console only reads it.
const MaxJobRetries = 3

// Transaction statuses. Linear pending -> payment_held -> shipped ->
// delivered -> paid_out, with a payment_held -> refunded side exit.
const (
	TxnPending     = "pending"
	TxnPaymentHeld = "payment_held"
	TxnShipped     = "shipped"
	TxnDelivered   = "delivered"
	TxnPaidOut     = "paid_out"
	TxnRefunded    = "refunded"
)

// Conversation statuses observed from the messaging service. The set is
// externally authoritative; anything unrecognized renders neutrally.
const (
	ConvActive      = "active"
	ConvNegotiating = "negotiating"
	ConvAgreed      = "agreed"
	ConvClosed      = "closed"
	ConvSold        = "sold"
)

var jobDisplays = map[string]Display{
	JobPending: {Label: "Pending", Severity: SeverityNeutral},
	JobPosting: {Label: "Posting", Severity: SeverityInProgress},
	JobPosted:  {Label: "Posted", Severity: SeverityPositive},
	JobFailed:  {Label: "Failed", Severity: SeverityNegative},
}

var transactionDisplays = map[string]Display{
	TxnPending:     {Label: "Pending Payment", Severity: SeverityNeutral},
	TxnPaymentHeld: {Label: "Payment Held", Severity: SeverityInProgress},
	TxnShipped:     {Label: "Shipped", Severity: SeverityInProgress},
	TxnDelivered:   {Label: "Delivered", Severity: SeverityPositive},
	TxnPaidOut:     {Label: "Paid Out", Severity: SeverityPositive},
	TxnRefunded:    {Label: "Refunded", Severity: SeverityNegative},
}

// Listings without a lifecycle status are live, same as "active".
var listingDisplays = map[string]Display{
	"":       {Label: "Active", Severity: SeverityInProgress},
	"active": {Label: "Active", Severity: SeverityInProgress},
	"sold":   {Label: "Sold", Severity: SeverityPositive},
}

var conversationDisplays = map[string]Display{
	ConvActive:      {Label: "Active", Severity: SeverityInProgress},
	ConvNegotiating: {Label: "Negotiating", Severity: SeverityInProgress},
	ConvAgreed:      {Label: "Agreed", Severity: SeverityPositive},
	ConvClosed:      {Label: "Closed", Severity: SeverityNeutral},
	ConvSold:        {Label: "Sold", Severity: SeverityPositive},
}

// For returns display metadata for any status string. It is total:
// unknown or future statuses fall back to a humanized neutral label
// rather than failing.
func For(kind Kind, status string) Display {
	var table map[string]Display
	switch kind {
	case KindJob:
		table = jobDisplays
	case KindTransaction:
		table = transactionDisplays
	case KindConversation:
		table = conversationDisplays
	case KindListing:
		table = listingDisplays
	}
	if d, ok := table[status]; ok {
		return d
	}
	return Display{Label: humanize(status), Severity: SeverityNeutral}
}

// humanize turns a raw snake_case status into a readable fallback label.
func humanize(status string) string {
	if status == "" {
		return "Unknown"
	}
	words := strings.Split(strings.ReplaceAll(status, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// TransactionStages returns the canonical escrow stage sequence, in
// order. refunded is deliberately absent: it is an out-of-band terminal.
func TransactionStages() []string {
	return []string{TxnPending, TxnPaymentHeld, TxnShipped, TxnDelivered, TxnPaidOut}
}

// StageIndex reports the index of the highest completed escrow stage for
// a transaction status, for progress-timeline rendering. The second
// return flags a refunded transaction, which reports no completed stage
// (-1) regardless of any earlier timestamps. Unknown statuses also
// report -1, without the refunded flag.
func StageIndex(status string) (int, bool) {
	if status == TxnRefunded {
		return -1, true
	}
	for i, s := range TransactionStages() {
		if s == status {
			return i, false
		}
	}
	return -1, false
}

// TransactionTerminal reports whether a transaction can no longer move.
func TransactionTerminal(status string) bool {
	return status == TxnPaidOut || status == TxnRefunded
}

// NextTransactionStatuses returns the statuses a transaction may move to
// next. All transitions are driven by the external payment system; the
// console uses this only to sanity-check observed updates.
func NextTransactionStatuses(status string) []string {
	switch status {
	case TxnPending:
		return []string{TxnPaymentHeld}
	case TxnPaymentHeld:
		return []string{TxnShipped, TxnRefunded}
	case TxnShipped:
		return []string{TxnDelivered}
	case TxnDelivered:
		return []string{TxnPaidOut}
	default:
		return nil
	}
}

// CanAttachTracking reports whether the seller may attach a tracking
// number: only while the payment is held in escrow. Attaching tracking
// does not itself change the status.
func CanAttachTracking(t models.Transaction) bool {
	return t.Status == TxnPaymentHeld
}

// CanRetry reports whether a posting job may be retried. This is the
// only job transition the console itself may request, and it must be
// checked before any network call.
func CanRetry(j models.PostingJob) bool {
	return j.Status == JobFailed && j.RetryCount < MaxJobRetries
}

// JobTerminal reports whether a posting job has finished for good.
// failed is not terminal while retries remain.
func JobTerminal(j models.PostingJob) bool {
	return j.Status == JobPosted || (j.Status == JobFailed && j.RetryCount >= MaxJobRetries)
}

// NextJobStatuses returns the statuses a job may move to next, including
// the retry edge back to pending while the budget allows it.
func NextJobStatuses(j models.PostingJob) []string {
	switch j.Status {
	case JobPending:
		return []string{JobPosting}
	case JobPosting:
		return []string{JobPosted, JobFailed}
	case JobFailed:
		if j.RetryCount < MaxJobRetries {
			return []string{JobPending}
		}
		return nil
	default:
		return nil
	}
}

// EffectivePrice returns the price to display for a conversation: the
// agreed price once one exists, otherwise the current offer. The second
// return is false when neither is set.
func EffectivePrice(c models.Conversation) (int64, bool) {
	if c.AgreedPrice != nil {
		return *c.AgreedPrice, true
	}
	if c.CurrentOffer != nil {
		return *c.CurrentOffer, true
	}
	return 0, false
}
