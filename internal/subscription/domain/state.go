package domain

import "time"

// BillingState is recomputed from the subscription timestamps on every read.
// It is never persisted; a stored enum would drift from the timestamps that
// govern it.
type BillingState string

const (
	BillingStateOK          BillingState = "ok"
	BillingStateTrialEnding BillingState = "trial_ending"
	BillingStateOverdue     BillingState = "overdue"
	BillingStateBlocked     BillingState = "blocked"
)

// DefaultGraceDays is the grace window applied after the current period ends
// when the billing provider supplied no explicit grace_until.
const DefaultGraceDays = 3

// TrialEndingWindow is how close to trial expiry the warning state kicks in.
const TrialEndingWindow = 7 * 24 * time.Hour

// DerivedState is the read-time billing state plus the countdowns the
// presentation layer renders next to it.
type DerivedState struct {
	State          BillingState `json:"state"`
	TrialDaysLeft  int          `json:"trial_days_left,omitempty"`
	GraceDaysLeft  int          `json:"grace_days_left,omitempty"`
	PeriodEndAt    *time.Time   `json:"period_end_at,omitempty"`
	GraceUntil     *time.Time   `json:"grace_until,omitempty"`
}

// DeriveState computes the billing state for sub at instant now. It is a
// total function: missing timestamps fall back to the defaulting rules
// before any comparison runs, so a subscription that only carries a trial
// end still degrades to "grace ends graceDays after trial".
//
// Boundaries: overdue is inclusive at period end, blocked is strictly after
// grace_until.
func DeriveState(sub Subscription, now time.Time, graceDays int) DerivedState {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}

	periodEnd := sub.CurrentPeriodEndAt
	if periodEnd == nil {
		periodEnd = sub.TrialEndAt
	}
	graceUntil := sub.GraceUntil
	if graceUntil == nil && periodEnd != nil {
		g := periodEnd.Add(time.Duration(graceDays) * 24 * time.Hour)
		graceUntil = &g
	}

	out := DerivedState{State: BillingStateOK, PeriodEndAt: periodEnd, GraceUntil: graceUntil}
	if periodEnd == nil {
		return out
	}

	if now.After(*graceUntil) {
		out.State = BillingStateBlocked
		return out
	}
	if !now.Before(*periodEnd) {
		out.State = BillingStateOverdue
		out.GraceDaysLeft = daysUntil(now, *graceUntil)
		return out
	}
	if sub.TrialEndAt != nil && now.Before(*sub.TrialEndAt) && sub.TrialEndAt.Sub(now) <= TrialEndingWindow {
		out.State = BillingStateTrialEnding
		out.TrialDaysLeft = daysUntil(now, *sub.TrialEndAt)
	}
	return out
}

// daysUntil rounds up so a partial day still counts as one remaining day.
func daysUntil(now, deadline time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
