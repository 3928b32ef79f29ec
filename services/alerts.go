package services

import (
	"fmt"
	"time"
)

// AlertKind names an event surfaced to staff.
type AlertKind string

const (
	AlertNewOrder     AlertKind = "new-order"
	AlertNewCall      AlertKind = "new-call"
	AlertPendingOrder AlertKind = "pending-order"
	AlertPendingCall  AlertKind = "pending-call"
	AlertUrgentOrder  AlertKind = "urgent-order"
	AlertUrgentCall   AlertKind = "urgent-call"
)

// Tone is one beep of a cue.
type Tone struct {
	FrequencyHz int           `json:"frequency_hz"`
	Duration    time.Duration `json:"duration"`
	Gap         time.Duration `json:"gap"`
}

// CueProfile is the audible pattern a presentation layer plays for a kind.
type CueProfile struct {
	Name  string `json:"name"`
	Tones []Tone `json:"tones"`
}

var cueProfiles = map[AlertKind]CueProfile{
	AlertNewOrder: {Name: "chime-rising", Tones: []Tone{
		{FrequencyHz: 660, Duration: 150 * time.Millisecond, Gap: 60 * time.Millisecond},
		{FrequencyHz: 880, Duration: 220 * time.Millisecond},
	}},
	AlertNewCall: {Name: "bell-double", Tones: []Tone{
		{FrequencyHz: 990, Duration: 120 * time.Millisecond, Gap: 100 * time.Millisecond},
		{FrequencyHz: 990, Duration: 120 * time.Millisecond},
	}},
	AlertPendingOrder: {Name: "soft-single", Tones: []Tone{
		{FrequencyHz: 520, Duration: 180 * time.Millisecond},
	}},
	AlertPendingCall: {Name: "soft-double", Tones: []Tone{
		{FrequencyHz: 600, Duration: 100 * time.Millisecond, Gap: 80 * time.Millisecond},
		{FrequencyHz: 600, Duration: 100 * time.Millisecond},
	}},
	AlertUrgentOrder: {Name: "alarm-triple", Tones: []Tone{
		{FrequencyHz: 1200, Duration: 120 * time.Millisecond, Gap: 60 * time.Millisecond},
		{FrequencyHz: 1200, Duration: 120 * time.Millisecond, Gap: 60 * time.Millisecond},
		{FrequencyHz: 1200, Duration: 240 * time.Millisecond},
	}},
	AlertUrgentCall: {Name: "alarm-siren", Tones: []Tone{
		{FrequencyHz: 1400, Duration: 150 * time.Millisecond, Gap: 40 * time.Millisecond},
		{FrequencyHz: 1000, Duration: 150 * time.Millisecond, Gap: 40 * time.Millisecond},
		{FrequencyHz: 1400, Duration: 150 * time.Millisecond, Gap: 40 * time.Millisecond},
		{FrequencyHz: 1000, Duration: 150 * time.Millisecond},
	}},
}

// AlertKinds lists every kind in a stable order.
func AlertKinds() []AlertKind {
	return []AlertKind{
		AlertNewOrder, AlertNewCall,
		AlertPendingOrder, AlertPendingCall,
		AlertUrgentOrder, AlertUrgentCall,
	}
}

// Cue returns the profile for k. Unknown kinds get a silent profile.
func (k AlertKind) Cue() CueProfile {
	if p, ok := cueProfiles[k]; ok {
		return p
	}
	return CueProfile{Name: "none"}
}

// IsSummary reports whether k is a cooled-down aggregate alert.
func (k AlertKind) IsSummary() bool {
	return k != AlertNewOrder && k != AlertNewCall
}

// Alert is one notifier event.
type Alert struct {
	Kind        AlertKind `json:"kind"`
	Cue         string    `json:"cue"`
	Count       int       `json:"count"`
	TableNumber *uint     `json:"table_number,omitempty"`
	OrderID     *uint     `json:"order_id,omitempty"`
	CallID      *uint     `json:"call_id,omitempty"`
	Message     string    `json:"message"`
	At          time.Time `json:"at"`
}

func newOrderAlert(orderID, table uint, orderNumber string, at time.Time) Alert {
	return Alert{
		Kind:        AlertNewOrder,
		Cue:         AlertNewOrder.Cue().Name,
		Count:       1,
		TableNumber: &table,
		OrderID:     &orderID,
		Message:     fmt.Sprintf("New order %s from table %d", orderNumber, table),
		At:          at,
	}
}

func newCallAlert(callID, table uint, at time.Time) Alert {
	return Alert{
		Kind:        AlertNewCall,
		Cue:         AlertNewCall.Cue().Name,
		Count:       1,
		TableNumber: &table,
		CallID:      &callID,
		Message:     fmt.Sprintf("Table %d is calling a waiter", table),
		At:          at,
	}
}

func summaryAlert(kind AlertKind, count int, at time.Time) Alert {
	var msg string
	switch kind {
	case AlertUrgentOrder:
		msg = fmt.Sprintf("%d urgent order(s) waiting", count)
	case AlertUrgentCall:
		msg = fmt.Sprintf("%d urgent waiter call(s) waiting", count)
	case AlertPendingOrder:
		msg = fmt.Sprintf("%d pending order(s)", count)
	case AlertPendingCall:
		msg = fmt.Sprintf("%d pending waiter call(s)", count)
	}
	return Alert{Kind: kind, Cue: kind.Cue().Name, Count: count, Message: msg, At: at}
}
