package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/enum"
	"github.com/lavapp/api/internal/service"
)

func makeOrder(status string, pickup, delivery time.Time, pickupTime, deliveryTime string) service.OrderDetail {
	return service.OrderDetail{
		Order: database.Order{
			ID:           uuid.New(),
			Code:         "LAV-0001",
			Status:       status,
			PickupDate:   pickup,
			PickupTime:   pickupTime,
			DeliveryDate: delivery,
			DeliveryTime: deliveryTime,
		},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProjectPickupAndDelivery(t *testing.T) {
	now := day(2026, time.June, 1)
	order := makeOrder(enum.OrderStatusReceived, day(2026, time.June, 8), day(2026, time.June, 12), "09:00", "18:00")

	events := Project([]service.OrderDetail{order}, day(2026, time.June, 1), day(2026, time.June, 30), Filters{}, now)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != EventPickup || events[1].Type != EventDelivery {
		t.Errorf("types = %s, %s", events[0].Type, events[1].Type)
	}
}

func TestProjectRangeExcludesDelivery(t *testing.T) {
	now := day(2026, time.June, 1)
	order := makeOrder(enum.OrderStatusReceived, day(2026, time.June, 8), day(2026, time.June, 12), "09:00", "18:00")

	// Only the pickup falls inside the window.
	events := Project([]service.OrderDetail{order}, day(2026, time.June, 6), day(2026, time.June, 10), Filters{}, now)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Type != EventPickup {
		t.Errorf("type = %s, want pickup", events[0].Type)
	}
}

func TestProjectFilters(t *testing.T) {
	now := day(2026, time.June, 1)
	received := makeOrder(enum.OrderStatusReceived, day(2026, time.June, 8), day(2026, time.June, 12), "09:00", "18:00")
	ready := makeOrder(enum.OrderStatusReady, day(2026, time.June, 9), day(2026, time.June, 13), "10:00", "17:00")
	orders := []service.OrderDetail{received, ready}
	start, end := day(2026, time.June, 1), day(2026, time.June, 30)

	events := Project(orders, start, end, Filters{Status: enum.OrderStatusReady}, now)
	if len(events) != 2 {
		t.Errorf("status filter: events = %d, want 2", len(events))
	}

	events = Project(orders, start, end, Filters{OperationType: EventDelivery}, now)
	if len(events) != 2 {
		t.Fatalf("operation filter: events = %d, want 2", len(events))
	}
	for _, e := range events {
		if e.Type != EventDelivery {
			t.Errorf("type = %s, want delivery", e.Type)
		}
	}
}

func TestProjectCustomerFilter(t *testing.T) {
	now := day(2026, time.June, 1)
	customerID := uuid.New()
	mine := makeOrder(enum.OrderStatusReceived, day(2026, time.June, 8), day(2026, time.June, 12), "09:00", "18:00")
	mine.Customer = &database.Customer{ID: customerID, Name: "João Silva"}
	other := makeOrder(enum.OrderStatusReceived, day(2026, time.June, 9), day(2026, time.June, 13), "09:00", "18:00")

	events := Project([]service.OrderDetail{mine, other},
		day(2026, time.June, 1), day(2026, time.June, 30),
		Filters{CustomerID: customerID.String()}, now)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (both from the matching customer)", len(events))
	}
	for _, e := range events {
		if e.Order.Customer == nil || e.Order.Customer.ID != customerID {
			t.Error("event from wrong customer")
		}
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)

	past := makeOrder(enum.OrderStatusWashing, day(2026, time.June, 10), day(2026, time.June, 15), "09:00", "18:00")
	events := Project([]service.OrderDetail{past}, day(2026, time.June, 1), day(2026, time.June, 30), Filters{OperationType: EventPickup}, now)
	if len(events) != 1 || !events[0].Overdue {
		t.Error("pickup at 09:00 with now at 12:00 should be overdue")
	}

	// Terminal orders are never overdue.
	done := makeOrder(enum.OrderStatusDelivered, day(2026, time.June, 10), day(2026, time.June, 15), "09:00", "18:00")
	events = Project([]service.OrderDetail{done}, day(2026, time.June, 1), day(2026, time.June, 30), Filters{OperationType: EventPickup}, now)
	if len(events) != 1 || events[0].Overdue {
		t.Error("delivered order should not be overdue")
	}

	// Future events are not overdue.
	future := makeOrder(enum.OrderStatusWashing, day(2026, time.June, 10), day(2026, time.June, 15), "15:00", "18:00")
	events = Project([]service.OrderDetail{future}, day(2026, time.June, 1), day(2026, time.June, 30), Filters{OperationType: EventPickup}, now)
	if len(events) != 1 || events[0].Overdue {
		t.Error("pickup at 15:00 with now at 12:00 should not be overdue")
	}
}

func TestMonthGrid(t *testing.T) {
	now := day(2026, time.June, 15)
	// June 2026 starts on a Monday, so the grid begins with Sunday May 31.
	days := MonthGrid(2026, time.June, nil, now)

	if len(days) != 42 {
		t.Fatalf("cells = %d, want 42", len(days))
	}
	if days[0].Date.Weekday() != time.Sunday {
		t.Errorf("first cell weekday = %s, want Sunday", days[0].Date.Weekday())
	}
	if days[0].IsCurrentMonth {
		t.Error("leading cell should not belong to the current month")
	}
	if !days[1].IsCurrentMonth || days[1].Date.Day() != 1 {
		t.Errorf("cell 1 = %v, want June 1", days[1].Date)
	}
	if !days[15].IsToday {
		t.Error("June 15 cell should be marked today")
	}
}

func TestMonthGridPlacesEvents(t *testing.T) {
	now := day(2026, time.June, 1)
	order := makeOrder(enum.OrderStatusReceived, day(2026, time.June, 8), day(2026, time.June, 12), "09:00", "18:00")
	start, end := MonthDateRange(2026, time.June)
	events := Project([]service.OrderDetail{order}, start, end, Filters{}, now)

	days := MonthGrid(2026, time.June, events, now)
	for _, d := range days {
		switch d.Date.Day() {
		case 8:
			if d.Date.Month() == time.June && len(d.Events) != 1 {
				t.Errorf("June 8: events = %d, want 1", len(d.Events))
			}
		case 12:
			if d.Date.Month() == time.June && len(d.Events) != 1 {
				t.Errorf("June 12: events = %d, want 1", len(d.Events))
			}
		}
	}
}

func TestWeekGrid(t *testing.T) {
	now := day(2026, time.June, 8)
	order := makeOrder(enum.OrderStatusReceived, day(2026, time.June, 8), day(2026, time.June, 12), "09:30", "18:00")
	start := StartOfWeek(day(2026, time.June, 8)) // Sunday June 7
	events := Project([]service.OrderDetail{order}, start, start.AddDate(0, 0, 6), Filters{}, now)

	days := WeekGrid(start, events, now)
	if len(days) != 7 {
		t.Fatalf("days = %d, want 7", len(days))
	}
	if len(days[0].Slots) != 15 {
		t.Errorf("slots = %d, want 15 (hours 6..20)", len(days[0].Slots))
	}

	// Monday June 8 is the second column; the 09:30 pickup lands in hour 9.
	monday := days[1]
	if !monday.IsToday {
		t.Error("June 8 should be marked today")
	}
	for _, slot := range monday.Slots {
		if slot.Hour == 9 {
			if len(slot.Events) != 1 || slot.Events[0].Type != EventPickup {
				t.Errorf("hour 9 events = %+v, want one pickup", slot.Events)
			}
		} else if len(slot.Events) != 0 {
			t.Errorf("hour %d has unexpected events", slot.Hour)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	// June 10 2026 is a Wednesday.
	got := StartOfWeek(day(2026, time.June, 10))
	want := day(2026, time.June, 7)
	if !got.Equal(want) {
		t.Errorf("StartOfWeek = %v, want %v", got, want)
	}

	// Sunday maps to itself.
	if got := StartOfWeek(day(2026, time.June, 7)); !got.Equal(want) {
		t.Errorf("StartOfWeek(Sunday) = %v, want %v", got, want)
	}
}

func TestMonthDateRange(t *testing.T) {
	start, end := MonthDateRange(2026, time.June)
	if !start.Equal(day(2026, time.May, 25)) {
		t.Errorf("start = %v, want May 25", start)
	}
	if !end.Equal(day(2026, time.July, 8)) {
		t.Errorf("end = %v, want July 8", end)
	}
}
