package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func newTestClient(topics ...string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		Topics: topics,
		Send:   make(chan []byte, 8),
	}
}

func TestRegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	subscribed := newTestClient(TopicPayments)
	other := newTestClient(TopicAppointments)
	hub.Register(subscribed)
	hub.Register(other)

	if hub.ClientCount() != 2 {
		t.Fatalf("client count = %d, want 2", hub.ClientCount())
	}

	if err := hub.Publish(context.Background(), Event{Type: "created", Topic: TopicPayments, EntityID: "PAY000001"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case raw := <-subscribed.Send:
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if ev.EntityID != "PAY000001" || ev.Timestamp.IsZero() {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("subscribed client received nothing")
	}

	select {
	case <-other.Send:
		t.Fatal("client on another topic received the event")
	default:
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	client := newTestClient()
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{TopicMedicalRecords}})
	if hub.TopicCount(TopicMedicalRecords) != 1 {
		t.Fatalf("topic count = %d, want 1", hub.TopicCount(TopicMedicalRecords))
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{TopicMedicalRecords}})
	if hub.TopicCount(TopicMedicalRecords) != 0 {
		t.Fatalf("topic count = %d, want 0", hub.TopicCount(TopicMedicalRecords))
	}

	hub.Broadcast(TopicMedicalRecords, Event{Type: "updated", Topic: TopicMedicalRecords})
	select {
	case <-client.Send:
		t.Fatal("unsubscribed client received the event")
	default:
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	client := newTestClient(TopicAppointments)
	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 || hub.TopicCount(TopicAppointments) != 0 {
		t.Fatal("client still tracked after unregister")
	}
	if _, open := <-client.Send; open {
		t.Fatal("send channel still open after unregister")
	}

	// A second unregister is a no-op, not a double close.
	hub.Unregister(client)
}

func TestBroadcastSkipsFullClients(t *testing.T) {
	hub := NewHub()
	client := &Client{ID: "slow", Topics: []string{TopicPayments}, Send: make(chan []byte)}
	hub.Register(client)

	// Must not block even though nobody is draining the channel.
	hub.Broadcast(TopicPayments, Event{Type: "created", Topic: TopicPayments})
}
