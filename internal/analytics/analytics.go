// Package analytics computes derived metrics over raw transaction and
// listing records. Every function is pure, deterministic, and defined
// for empty input. All money stays in integer cents; nothing here ever
// accumulates floating-point currency.
package analytics

import (
	"sort"
	"time"

	"github.com/crosspost/internal/status"
	"github.com/crosspost/pkg/models"
)

// DateFormat is the calendar-date bucket key. It sorts lexically in
// temporal order.
const DateFormat = "2006-01-02"

// TotalEarned sums amounts already paid out to the seller.
func TotalEarned(txns []models.Transaction) int64 {
	var sum int64
	for _, t := range txns {
		if t.Status == status.TxnPaidOut {
			sum += t.AmountCents
		}
	}
	return sum
}

// PendingPayout sums amounts held in escrow but not yet paid out:
// payment_held, shipped, and delivered. pending and refunded
// transactions contribute to neither this nor TotalEarned.
func PendingPayout(txns []models.Transaction) int64 {
	var sum int64
	for _, t := range txns {
		switch t.Status {
		case status.TxnPaymentHeld, status.TxnShipped, status.TxnDelivered:
			sum += t.AmountCents
		}
	}
	return sum
}

// AverageSalePrice is the mean amount over completed sales (delivered or
// paid_out), in cents. Zero when there are none.
func AverageSalePrice(txns []models.Transaction) int64 {
	var sum, n int64
	for _, t := range txns {
		if t.Status == status.TxnDelivered || t.Status == status.TxnPaidOut {
			sum += t.AmountCents
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// RevenuePoint is one bucket of the cumulative revenue series.
type RevenuePoint struct {
	Date            string `json:"date"`
	CumulativeCents int64  `json:"cumulative_cents"`
}

// revenueEligible filters and sorts the transactions that count as
// realized revenue, ascending by paid_at falling back to created_at.
func revenueEligible(txns []models.Transaction) []models.Transaction {
	eligible := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.Status == status.TxnPaidOut || t.Status == status.TxnDelivered {
			eligible = append(eligible, t)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return revenueTime(eligible[i]).Before(revenueTime(eligible[j]))
	})
	return eligible
}

func revenueTime(t models.Transaction) time.Time {
	if t.PaidAt != nil && !t.PaidAt.IsZero() {
		return t.PaidAt.Time
	}
	return t.CreatedAt.Time
}

// RevenueOverTime emits the cumulative running sum of realized revenue
// (paid_out or delivered) keyed by calendar date. Consecutive
// transactions on the same date collapse into one point carrying the
// running total, so the series is monotonically non-decreasing.
func RevenueOverTime(txns []models.Transaction) []RevenuePoint {
	eligible := revenueEligible(txns)
	points := make([]RevenuePoint, 0, len(eligible))
	var running int64
	for _, t := range eligible {
		running += t.AmountCents
		date := revenueTime(t).Format(DateFormat)
		if n := len(points); n > 0 && points[n-1].Date == date {
			points[n-1].CumulativeCents = running
			continue
		}
		points = append(points, RevenuePoint{Date: date, CumulativeCents: running})
	}
	return points
}

// VolumePoint is one bucket of the sales-volume series.
type VolumePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// SalesVolumeByDate counts all transactions per created_at calendar
// date, emitted in ascending date order for charting.
func SalesVolumeByDate(txns []models.Transaction) []VolumePoint {
	byDate := make(map[string]int)
	for _, t := range txns {
		byDate[t.CreatedAt.Format(DateFormat)]++
	}
	points := make([]VolumePoint, 0, len(byDate))
	for date, count := range byDate {
		points = append(points, VolumePoint{Date: date, Count: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// TrendPoint is one step of the running-mean price series.
type TrendPoint struct {
	Date      string `json:"date"`
	MeanCents int64  `json:"mean_cents"`
}

// AveragePriceTrend emits the running mean sale price after each
// realized transaction, in the same ascending order RevenueOverTime
// uses: point i is the mean of the first i+1 eligible amounts.
func AveragePriceTrend(txns []models.Transaction) []TrendPoint {
	eligible := revenueEligible(txns)
	points := make([]TrendPoint, 0, len(eligible))
	var sum int64
	for i, t := range eligible {
		sum += t.AmountCents
		points = append(points, TrendPoint{
			Date:      revenueTime(t).Format(DateFormat),
			MeanCents: sum / int64(i+1),
		})
	}
	return points
}

// Tab names a transaction list view. The four specific tabs partition
// TabAll exactly; a transaction with an unrecognized status shows up
// only under TabAll.
type Tab string

const (
	TabAll       Tab = "all"
	TabPending   Tab = "pending"
	TabActive    Tab = "active"
	TabCompleted Tab = "completed"
	TabRefunded  Tab = "refunded"
)

// Tabs lists the transaction views in display order.
func Tabs() []Tab {
	return []Tab{TabAll, TabPending, TabActive, TabCompleted, TabRefunded}
}

// tabFor maps a transaction status to its specific tab, or TabAll for
// statuses outside the known vocabulary.
func tabFor(st string) Tab {
	switch st {
	case status.TxnPending:
		return TabPending
	case status.TxnPaymentHeld, status.TxnShipped:
		return TabActive
	case status.TxnDelivered, status.TxnPaidOut:
		return TabCompleted
	case status.TxnRefunded:
		return TabRefunded
	default:
		return TabAll
	}
}

// FilterByTab returns the transactions belonging to one named view,
// preserving input order.
func FilterByTab(tab Tab, txns []models.Transaction) []models.Transaction {
	if tab == TabAll {
		out := make([]models.Transaction, len(txns))
		copy(out, txns)
		return out
	}
	out := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if tabFor(t.Status) == tab {
			out = append(out, t)
		}
	}
	return out
}

// TabCounts returns the size of each view for tab badges.
func TabCounts(txns []models.Transaction) map[Tab]int {
	counts := map[Tab]int{
		TabAll:       len(txns),
		TabPending:   0,
		TabActive:    0,
		TabCompleted: 0,
		TabRefunded:  0,
	}
	for _, t := range txns {
		if tab := tabFor(t.Status); tab != TabAll {
			counts[tab]++
		}
	}
	return counts
}

// Offer and listing helpers used by the listing detail view.

// HighestOffer returns the best effective price across a listing's
// conversations, in cents. Zero when no conversation carries a price.
func HighestOffer(convos []models.Conversation) int64 {
	var best int64
	for _, c := range convos {
		if price, ok := status.EffectivePrice(c); ok && price > best {
			best = price
		}
	}
	return best
}

// AverageOffer returns the mean effective price across conversations
// that carry one, in cents. Zero when none do.
func AverageOffer(convos []models.Conversation) int64 {
	var sum, n int64
	for _, c := range convos {
		if price, ok := status.EffectivePrice(c); ok {
			sum += price
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// ActiveListingCount counts listings not yet sold. Listings without a
// lifecycle status count as active.
func ActiveListingCount(listings []models.Listing) int {
	n := 0
	for _, l := range listings {
		if l.Status == "" || l.Status == "active" {
			n++
		}
	}
	return n
}

// SoldListingCount counts listings marked sold.
func SoldListingCount(listings []models.Listing) int {
	n := 0
	for _, l := range listings {
		if l.Status == "sold" {
			n++
		}
	}
	return n
}

// JobCountsByStatus tallies posting jobs per status for the watch view.
func JobCountsByStatus(jobs []models.PostingJob) map[string]int {
	counts := make(map[string]int)
	for _, j := range jobs {
		counts[j.Status]++
	}
	return counts
}
