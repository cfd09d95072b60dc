package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func receive(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	require.Equal(t, 0, b.ClientCount())
	ch := b.Subscribe()
	require.Equal(t, 1, b.ClientCount())
	b.Unsubscribe(ch)
	assert.Equal(t, 0, b.ClientCount())
}

func TestPublishNoteEvent(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent("created", "a.md")

	msg := receive(t, ch)
	assert.True(t, strings.HasPrefix(msg, "event: note.created\n"), "missing event type in %q", msg)
	assert.Contains(t, msg, `data: {"path":"a.md"}`)
}

func TestPublishNoteEvent_UnknownKindIgnored(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent("renamed", "a.md")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, drain(ch))
}

func TestPublishRefactor(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishRefactor("source.md", "split", []string{"A.md", "B.md"})

	want := "event: note.refactored\ndata: {\"source\":\"source.md\",\"mode\":\"split\",\"targets\":[\"A.md\",\"B.md\"]}\n\n"
	assert.Equal(t, want, receive(t, ch))
}

func TestBacklinksThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNoteEvent("created", "a.md")
	b.PublishNoteEvent("updated", "b.md")
	b.PublishRefactor("a.md", "split", []string{"c.md"})

	time.Sleep(50 * time.Millisecond)
	backlinks, other := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, TypeBacklinksChanged) {
			backlinks++
		} else {
			other++
		}
	}
	assert.Equal(t, 3, other)
	assert.Equal(t, 1, backlinks, "backlinks.changed should be throttled")
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	b.PublishNoteEvent("updated", "x.md")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event: note.updated")
	assert.Eventually(t, func() bool { return b.ClientCount() == 0 }, time.Second, 10*time.Millisecond,
		"client not cleaned up after disconnect")
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 70; i++ {
		b.PublishNoteEvent("updated", "x.md")
	}
	assert.Equal(t, 1, b.ClientCount(), "a slow client stays subscribed")
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "expected subscriber channel to be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	assert.Equal(t, 0, b.ClientCount())
	b.PublishNoteEvent("updated", "x.md")
	b.PublishRefactor("a.md", "split", nil)
}
