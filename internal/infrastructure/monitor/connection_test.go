package monitor

import (
	"context"
	"errors"
	"testing"
)

type fakeBuffer struct {
	size int
	err  error
}

func (f fakeBuffer) Len() (int, error) { return f.size, f.err }

func TestRefreshRecordsComponents(t *testing.T) {
	failing := PingFunc(func(context.Context) error { return errors.New("down") })
	healthy := PingFunc(func(context.Context) error { return nil })

	m := New("items", map[string]Pinger{"items": healthy, "redis": failing}, fakeBuffer{size: 4}, 0, nil)
	status := m.Refresh(context.Background())

	if !status.Components["items"] || status.Components["redis"] {
		t.Fatalf("unexpected components: %+v", status.Components)
	}
	if status.Healthy() {
		t.Fatal("status with a failing component must not be healthy")
	}
	if !status.Buffer || status.BufferSize != 4 {
		t.Fatalf("unexpected buffer status: %+v", status)
	}
	if !m.IsOnline() {
		t.Fatal("expected online when primary answers")
	}
}

func TestIsOnlineFollowsPrimary(t *testing.T) {
	up := true
	primary := PingFunc(func(context.Context) error {
		if up {
			return nil
		}
		return errors.New("down")
	})

	m := New("items", map[string]Pinger{"items": primary}, nil, 0, nil)
	m.Refresh(context.Background())
	if !m.IsOnline() {
		t.Fatal("expected online")
	}

	up = false
	m.Refresh(context.Background())
	if m.IsOnline() {
		t.Fatal("expected offline after failed probe")
	}
	if m.GetStatus().Buffer {
		t.Fatal("missing buffer must report false")
	}
}

func TestGetStatusReturnsCopy(t *testing.T) {
	m := New("", map[string]Pinger{"items": PingFunc(func(context.Context) error { return nil })}, nil, 0, nil)
	m.Refresh(context.Background())

	status := m.GetStatus()
	status.Components["items"] = false
	if !m.GetStatus().Components["items"] {
		t.Fatal("status leaked internal map")
	}
	if !m.IsOnline() {
		t.Fatal("no primary means online")
	}
	m.Stop()
	m.Stop()
}
