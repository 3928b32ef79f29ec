package services

import (
	"sort"
	"time"
)

// Urgency is the severity tier of a request, derived from its age only.
type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyHigh
	UrgencyUrgent
	UrgencyCritical
)

const (
	highAfter     = 5 * time.Minute
	urgentAfter   = 10 * time.Minute
	criticalAfter = 15 * time.Minute
)

func (u Urgency) String() string {
	switch u {
	case UrgencyHigh:
		return "high"
	case UrgencyUrgent:
		return "urgent"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// AtLeast reports whether u is as severe as other or more.
func (u Urgency) AtLeast(other Urgency) bool {
	return u >= other
}

// Classify returns the tier for something created at ref, seen at now.
// Thresholds are exclusive: exactly five minutes is still normal.
func Classify(ref, now time.Time) Urgency {
	elapsed := now.Sub(ref)
	switch {
	case elapsed > criticalAfter:
		return UrgencyCritical
	case elapsed > urgentAfter:
		return UrgencyUrgent
	case elapsed > highAfter:
		return UrgencyHigh
	default:
		return UrgencyNormal
	}
}

// Worklistable is satisfied by models.Order and models.WaiterCall.
type Worklistable interface {
	IsPending() bool
	ReferenceTime() time.Time
}

// SortWorklist orders items in place for staff: pending first, then more
// severe first, then oldest first. Everything else follows, newest first.
func SortWorklist[T Worklistable](items []T, now time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return worklistLess(items[i], items[j], now)
	})
}

func worklistLess(a, b Worklistable, now time.Time) bool {
	aPending, bPending := a.IsPending(), b.IsPending()
	if aPending != bPending {
		return aPending
	}

	at, bt := a.ReferenceTime(), b.ReferenceTime()
	if !aPending {
		return at.After(bt)
	}

	au, bu := Classify(at, now), Classify(bt, now)
	if au != bu {
		return au > bu
	}
	return at.Before(bt)
}
