package events

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	handler := func(event *Event) error {
		received = event
		callCount++
		return nil
	}

	bus.Subscribe(EventItemBooked, handler)

	payload := OrderEventPayload{ItemID: 7, UserID: 3, Status: "pending"}
	err := bus.PublishJSON(EventItemBooked, payload)
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventItemBooked {
		t.Errorf("expected type %s, got %s", EventItemBooked, received.Type)
	}

	var decoded OrderEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.ItemID != 7 || decoded.UserID != 3 || decoded.Status != "pending" {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Should not panic
	bus.Publish(&Event{Type: "unknown"})
	err := bus.PublishJSON("unknown", nil)
	if err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventItemSold, nil); err != nil {
		t.Errorf("nil bus PublishJSON failed: %v", err)
	}
}

func TestPublishSetsCreatedAt(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	bus.Subscribe(EventBalanceCredited, func(event *Event) error {
		received = event
		return nil
	})

	payload := BalanceEventPayload{
		UserID:  5,
		Amount:  decimal.RequireFromString("10.50"),
		Balance: decimal.RequireFromString("110.50"),
	}
	if err := bus.PublishJSON(EventBalanceCredited, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if received == nil {
		t.Fatal("expected handler to be called")
	}
	if received.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded BalanceEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !decoded.Balance.Equal(decimal.RequireFromString("110.50")) {
		t.Errorf("expected balance 110.50, got %s", decoded.Balance)
	}
}
