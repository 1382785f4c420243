package notify

import (
	"testing"

	"github.com/cleartrack/client/internal/model"
)

func TestPublishFansOut(t *testing.T) {
	e := NewEmitter()
	defer e.Close()

	_, ch1 := e.Subscribe(4)
	_, ch2 := e.Subscribe(4)

	e.Publish(model.Event{Type: model.EventJobCompleted, JobID: "j1"})

	for i, ch := range []<-chan model.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.JobID != "j1" {
				t.Fatalf("subscriber %d got wrong event: %+v", i, ev)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	e := NewEmitter()
	defer e.Close()

	id, ch := e.Subscribe(1)
	e.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}

	// Publishing afterwards must not panic or deliver.
	e.Publish(model.Event{Type: model.EventJobFailed, JobID: "j2"})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	e := NewEmitter()
	defer e.Close()

	_, ch := e.Subscribe(1)

	e.Publish(model.Event{JobID: "first"})
	e.Publish(model.Event{JobID: "second"}) // buffer full, dropped

	ev := <-ch
	if ev.JobID != "first" {
		t.Fatalf("expected first event, got %+v", ev)
	}
	select {
	case ev := <-ch:
		t.Fatalf("expected drop, got %+v", ev)
	default:
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	e := NewEmitter()
	_, ch := e.Subscribe(1)
	e.Close()
	e.Close()

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	e.Publish(model.Event{JobID: "after-close"}) // must not panic
}

func TestSignalCoalesces(t *testing.T) {
	s := NewSignal()

	id, ch := s.Subscribe()
	defer s.Unsubscribe(id)

	s.Broadcast()
	s.Broadcast()
	s.Broadcast()

	<-ch
	select {
	case <-ch:
		t.Fatal("ticks should coalesce to one pending")
	default:
	}
}
