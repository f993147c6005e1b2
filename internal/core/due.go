package core

import (
	"fmt"
	"time"
)

// DueStatus classifies a payment date relative to today.
type DueStatus int

const (
	Upcoming DueStatus = iota
	DueToday
	Overdue
)

func (s DueStatus) String() string {
	switch s {
	case Overdue:
		return "overdue"
	case DueToday:
		return "due today"
	default:
		return "upcoming"
	}
}

// DueInfo is the due state of a payment and how many days away (or late) it is.
type DueInfo struct {
	Status DueStatus `json:"-"`
	Days   int       `json:"days"`
}

// Label renders the state the way the recurring list shows it.
func (d DueInfo) Label() string {
	switch d.Status {
	case Overdue:
		if d.Days == 1 {
			return "1 day overdue!"
		}
		return fmt.Sprintf("%d days overdue!", d.Days)
	case DueToday:
		return "due today"
	}
	if d.Days == 1 {
		return "1 day remaining"
	}
	return fmt.Sprintf("%d days remaining", d.Days)
}

func (d DueInfo) MarshalText() ([]byte, error) { return []byte(d.Label()), nil }

// DueState compares calendar days only; the time of day is ignored.
func DueState(paymentDate, today time.Time) DueInfo {
	p, t := DateOf(paymentDate), DateOf(today)
	days := int(p.Sub(t).Hours() / 24)
	switch {
	case days < 0:
		return DueInfo{Status: Overdue, Days: -days}
	case days == 0:
		return DueInfo{Status: DueToday}
	}
	return DueInfo{Status: Upcoming, Days: days}
}
