package hooks

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishDeliversToAllSubscribersInOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	sub1, _ := bus.Register(SubscriberFunc(func(_ context.Context, _ Event) error {
		order = append(order, "sub1")
		return nil
	}))
	defer sub1.Close()
	sub2, _ := bus.Register(SubscriberFunc(func(_ context.Context, _ Event) error {
		order = append(order, "sub2")
		return nil
	}))
	defer sub2.Close()

	err := bus.Publish(context.Background(), NewMissionStarted("m1", "Test Mission", false))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(order) != 2 || order[0] != "sub1" || order[1] != "sub2" {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestBusPublishStopsAtFirstError(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	called := false
	sub1, _ := bus.Register(SubscriberFunc(func(_ context.Context, _ Event) error { return boom }))
	defer sub1.Close()
	sub2, _ := bus.Register(SubscriberFunc(func(_ context.Context, _ Event) error {
		called = true
		return nil
	}))
	defer sub2.Close()

	err := bus.Publish(context.Background(), NewMissionStarted("m1", "Test Mission", false))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if called {
		t.Fatal("expected second subscriber to never be called")
	}
}

func TestSubscriptionCloseIsIdempotentAndStopsDelivery(t *testing.T) {
	bus := NewBus()
	count := 0
	sub, _ := bus.Register(SubscriberFunc(func(_ context.Context, _ Event) error {
		count++
		return nil
	}))
	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	_ = bus.Publish(context.Background(), NewMissionStarted("m1", "Test Mission", false))
	if count != 0 {
		t.Fatalf("expected closed subscriber to receive nothing, got %d calls", count)
	}
}

type fakeStreamClient struct {
	streams map[string]*fakeStream
}

type fakeStream struct {
	events []string
}

func (c *fakeStreamClient) Stream(name string) (Stream, error) {
	if c.streams == nil {
		c.streams = make(map[string]*fakeStream)
	}
	s, ok := c.streams[name]
	if !ok {
		s = &fakeStream{}
		c.streams[name] = s
	}
	return s, nil
}

func (s *fakeStream) Add(_ context.Context, event string, _ []byte) (string, error) {
	s.events = append(s.events, event)
	return "0-0", nil
}

func TestPulseBusMirrorsEventsToStream(t *testing.T) {
	client := &fakeStreamClient{}
	bus := NewPulseBus(client, nil)

	err := bus.Publish(context.Background(), NewCycleStarted("m1", "c1", 1))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	stream := client.streams["mission/m1"]
	if stream == nil || len(stream.events) != 1 {
		t.Fatalf("expected 1 mirrored event, got %+v", stream)
	}
	if stream.events[0] != string(CycleStarted) {
		t.Fatalf("unexpected event name: %q", stream.events[0])
	}
}

func TestPulseBusStillDeliversToLocalSubscribers(t *testing.T) {
	client := &fakeStreamClient{}
	bus := NewPulseBus(client, nil)
	received := false
	sub, _ := bus.Register(SubscriberFunc(func(_ context.Context, _ Event) error {
		received = true
		return nil
	}))
	defer sub.Close()

	_ = bus.Publish(context.Background(), NewMissionCompleted("m1", "success"))
	if !received {
		t.Fatal("expected local subscriber to receive event")
	}
}
