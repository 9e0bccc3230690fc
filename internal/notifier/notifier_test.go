package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestTerminalNotifier_Serve(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminalNotifier(&out, 0, true)

	var seen []string
	in := strings.NewReader("next\n\n  buy  \nquit\nsell\n")
	err := term.Serve(context.Background(), in, "> ", func(cmd string) string {
		seen = append(seen, cmd)
		return "ok " + cmd
	})
	if err != nil {
		t.Fatalf("Serve() failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != "next" || seen[1] != "buy" {
		t.Errorf("expected next and buy before quit, got %v", seen)
	}
	if !strings.Contains(out.String(), "ok buy\n") || !strings.Contains(out.String(), "> ") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestTerminalNotifier_ServeStopsAtEOF(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminalNotifier(&out, 0, true)
	calls := 0
	if err := term.Serve(context.Background(), strings.NewReader("status"), "", func(string) string {
		calls++
		return ""
	}); err != nil {
		t.Fatalf("Serve() failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one command, got %d", calls)
	}
}

func TestTelegramNotifier_Notify(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["chat_id"] != "42" || payload["text"] != "🎉 Level up!" {
			t.Errorf("unexpected payload %v", payload)
		}
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("token", "42", "")
	tg.BaseURL = srv.URL
	if err := tg.Notify(context.Background(), "🎉 Level up!"); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected one request, got %d", hits.Load())
	}
}

func TestTelegramNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("token", "42", "")
	tg.BaseURL = srv.URL
	tg.MaxRetries = 0
	if err := tg.Notify(context.Background(), "hi"); err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestTelegramNotifier_PollingReturnsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/getUpdates" {
			w.Write([]byte(`{"ok":true}`))
			return
		}
		if r.URL.Query().Get("offset") == "0" {
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":1,"message":{"text":"/buy","chat":{"id":999}}},
				{"update_id":2,"message":{"text":"/next","chat":{"id":42}}}]}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer srv.Close()

	tg := NewTelegramNotifier("token", "42", "")
	tg.BaseURL = srv.URL
	tg.MaxRetries = 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var seen []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		tg.StartPolling(ctx, func(cmd string) string {
			seen = append(seen, cmd)
			cancel()
			return ""
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not return after cancel")
	}
	if len(seen) != 1 || seen[0] != "next" {
		t.Errorf("expected only next from the configured chat, got %v", seen)
	}
}

type recordingNotifier struct{ got []string }

func (r *recordingNotifier) Notify(_ context.Context, text string) error {
	r.got = append(r.got, text)
	return nil
}

func TestBroadcast(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	Broadcast(context.Background(), "", a, b)
	Broadcast(context.Background(), "hello", a, b)
	if len(a.got) != 1 || len(b.got) != 1 || a.got[0] != "hello" {
		t.Errorf("unexpected deliveries %v %v", a.got, b.got)
	}
}
