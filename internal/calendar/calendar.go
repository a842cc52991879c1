// Package calendar projects orders into pickup and delivery events and lays
// them out on month and week grids.
package calendar

import (
	"strconv"
	"strings"
	"time"

	"github.com/lavapp/api/internal/enum"
	"github.com/lavapp/api/internal/service"
)

// Event types.
const (
	EventPickup   = "pickup"
	EventDelivery = "delivery"
)

// Filters narrows the projected events. Zero values mean no filtering;
// OperationType accepts "pickup", "delivery", or "" for both.
type Filters struct {
	Status        string
	OperationType string
	CustomerID    string
}

// Event is one pickup or delivery occurrence of an order.
type Event struct {
	Order   service.OrderDetail
	Type    string
	Date    time.Time
	Time    string // HH:MM
	Overdue bool
}

// Day is a single calendar cell with its events.
type Day struct {
	Date           time.Time
	Events         []Event
	IsToday        bool
	IsCurrentMonth bool
}

// HourSlot groups a day's events by hour for the week view.
type HourSlot struct {
	Hour   int
	Events []Event
}

// WeekDay is one column of the week grid, with slots for hours 6 through 20.
type WeekDay struct {
	Date    time.Time
	IsToday bool
	Slots   []HourSlot
}

// Week view hour range.
const (
	weekFirstHour = 6
	weekLastHour  = 20
)

// Project turns orders into calendar events inside [start, end], applying the
// filters. Each order yields up to two events: its pickup and its delivery.
func Project(orders []service.OrderDetail, start, end time.Time, filters Filters, now time.Time) []Event {
	var events []Event
	for _, o := range orders {
		if filters.Status != "" && o.Order.Status != filters.Status {
			continue
		}
		if filters.CustomerID != "" {
			if o.Customer == nil || o.Customer.ID.String() != filters.CustomerID {
				continue
			}
		}

		if filters.OperationType == "" || filters.OperationType == EventPickup {
			if inRange(o.Order.PickupDate, start, end) {
				events = append(events, Event{
					Order:   o,
					Type:    EventPickup,
					Date:    o.Order.PickupDate,
					Time:    o.Order.PickupTime,
					Overdue: isOverdue(o.Order.Status, o.Order.PickupDate, o.Order.PickupTime, now),
				})
			}
		}
		if filters.OperationType == "" || filters.OperationType == EventDelivery {
			if inRange(o.Order.DeliveryDate, start, end) {
				events = append(events, Event{
					Order:   o,
					Type:    EventDelivery,
					Date:    o.Order.DeliveryDate,
					Time:    o.Order.DeliveryTime,
					Overdue: isOverdue(o.Order.Status, o.Order.DeliveryDate, o.Order.DeliveryTime, now),
				})
			}
		}
	}
	return events
}

// MonthGrid builds the 42-cell month view: the weeks containing the month,
// padded with leading and trailing days so the grid always starts on Sunday.
func MonthGrid(year int, month time.Month, events []Event, now time.Time) []Day {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	today := dateOnly(now)

	days := make([]Day, 0, 42)

	// Leading days from the previous month.
	for i := int(firstDay.Weekday()); i > 0; i-- {
		date := firstDay.AddDate(0, 0, -i)
		days = append(days, Day{
			Date:           date,
			Events:         eventsOn(events, date),
			IsToday:        date.Equal(today),
			IsCurrentMonth: false,
		})
	}

	for date := firstDay; date.Month() == month; date = date.AddDate(0, 0, 1) {
		days = append(days, Day{
			Date:           date,
			Events:         eventsOn(events, date),
			IsToday:        date.Equal(today),
			IsCurrentMonth: true,
		})
	}

	// Trailing days from the next month up to 42 cells.
	next := firstDay.AddDate(0, 1, 0)
	for i := 0; len(days) < 42; i++ {
		date := next.AddDate(0, 0, i)
		days = append(days, Day{
			Date:           date,
			Events:         eventsOn(events, date),
			IsToday:        date.Equal(today),
			IsCurrentMonth: false,
		})
	}

	return days
}

// WeekGrid builds seven day columns starting at startOfWeek, each with hour
// slots from 6:00 through 20:00. Events land in the slot matching the hour of
// their HH:MM time.
func WeekGrid(startOfWeek time.Time, events []Event, now time.Time) []WeekDay {
	today := dateOnly(now)

	days := make([]WeekDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := startOfWeek.AddDate(0, 0, i)
		dayEvents := eventsOn(events, date)

		slots := make([]HourSlot, 0, weekLastHour-weekFirstHour+1)
		for hour := weekFirstHour; hour <= weekLastHour; hour++ {
			slot := HourSlot{Hour: hour}
			for _, e := range dayEvents {
				if eventHour(e.Time) == hour {
					slot.Events = append(slot.Events, e)
				}
			}
			slots = append(slots, slot)
		}

		days = append(days, WeekDay{
			Date:    date,
			IsToday: date.Equal(today),
			Slots:   slots,
		})
	}
	return days
}

// StartOfWeek returns the Sunday on or before the given date, at midnight.
func StartOfWeek(date time.Time) time.Time {
	d := dateOnly(date)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// MonthDateRange returns the fetch window for a month view, padded a week on
// each side so the grid's leading and trailing cells have their events.
func MonthDateRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7)
	end := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 7)
	return start, end
}

// isOverdue reports whether an event's date and time lie in the past while
// the order is still active.
func isOverdue(status string, date time.Time, hhmm string, now time.Time) bool {
	if enum.IsTerminalOrderStatus(status) {
		return false
	}
	h, m := splitTime(hhmm)
	at := time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, now.Location())
	return at.Before(now)
}

func eventHour(hhmm string) int {
	h, _ := splitTime(hhmm)
	return h
}

func splitTime(hhmm string) (int, int) {
	parts := strings.SplitN(hhmm, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m := 0
	if len(parts) == 2 {
		m, _ = strconv.Atoi(parts[1])
	}
	return h, m
}

func inRange(date, start, end time.Time) bool {
	d := dateOnly(date)
	return !d.Before(dateOnly(start)) && !d.After(dateOnly(end))
}

func eventsOn(events []Event, date time.Time) []Event {
	var out []Event
	for _, e := range events {
		if sameDay(e.Date, date) {
			out = append(out, e)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
