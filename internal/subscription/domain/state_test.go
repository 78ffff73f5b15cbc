package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(t time.Time) *time.Time { return &t }

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestDeriveState_TrialEndingWindow(t *testing.T) {
	sub := Subscription{TrialEndAt: ptr(now.Add(5 * 24 * time.Hour))}

	out := DeriveState(sub, now, DefaultGraceDays)
	assert.Equal(t, BillingStateTrialEnding, out.State)
	assert.Equal(t, 5, out.TrialDaysLeft)

	// More than seven days out there is no banner yet.
	sub.TrialEndAt = ptr(now.Add(8 * 24 * time.Hour))
	out = DeriveState(sub, now, DefaultGraceDays)
	assert.Equal(t, BillingStateOK, out.State)
}

func TestDeriveState_OverdueInclusiveAtPeriodEnd(t *testing.T) {
	periodEnd := now
	sub := Subscription{
		TrialEndAt:         ptr(now.Add(-30 * 24 * time.Hour)),
		CurrentPeriodEndAt: ptr(periodEnd),
	}

	out := DeriveState(sub, now, DefaultGraceDays)
	assert.Equal(t, BillingStateOverdue, out.State)
	assert.Equal(t, 3, out.GraceDaysLeft)

	// One second before period end is still fine.
	out = DeriveState(sub, now.Add(-time.Second), DefaultGraceDays)
	assert.Equal(t, BillingStateOK, out.State)
}

func TestDeriveState_BlockedStrictlyAfterGrace(t *testing.T) {
	grace := now
	sub := Subscription{
		CurrentPeriodEndAt: ptr(now.Add(-10 * 24 * time.Hour)),
		GraceUntil:         ptr(grace),
	}

	// Exactly at grace_until the tenant is still only overdue.
	out := DeriveState(sub, now, DefaultGraceDays)
	assert.Equal(t, BillingStateOverdue, out.State)

	out = DeriveState(sub, now.Add(time.Second), DefaultGraceDays)
	assert.Equal(t, BillingStateBlocked, out.State)
}

func TestDeriveState_DefaultsAppliedBeforeComparison(t *testing.T) {
	// Only a trial end is set: period end falls back to it and grace falls
	// back to period end plus the grace window.
	trialEnd := now.Add(-24 * time.Hour)
	sub := Subscription{TrialEndAt: ptr(trialEnd)}

	out := DeriveState(sub, now, DefaultGraceDays)
	assert.Equal(t, BillingStateOverdue, out.State)
	assert.Equal(t, 2, out.GraceDaysLeft)

	afterGrace := trialEnd.Add(3*24*time.Hour + time.Second)
	out = DeriveState(sub, afterGrace, DefaultGraceDays)
	assert.Equal(t, BillingStateBlocked, out.State)
}

func TestDeriveState_NoTimestampsIsOK(t *testing.T) {
	out := DeriveState(Subscription{}, now, DefaultGraceDays)
	assert.Equal(t, BillingStateOK, out.State)
	assert.Nil(t, out.PeriodEndAt)
	assert.Nil(t, out.GraceUntil)
}

func TestDeriveState_GraceDaysLeftRoundsUp(t *testing.T) {
	sub := Subscription{
		CurrentPeriodEndAt: ptr(now.Add(-time.Hour)),
		GraceUntil:         ptr(now.Add(36 * time.Hour)),
	}
	out := DeriveState(sub, now, DefaultGraceDays)
	assert.Equal(t, BillingStateOverdue, out.State)
	assert.Equal(t, 2, out.GraceDaysLeft)
}
