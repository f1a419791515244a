package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestRoomID(t *testing.T) {
	cases := map[string]string{
		`"c1"`:                        "c1",
		`{"conversationId":"c2"}`:     "c2",
		`{"room":"c3"}`:               "c3",
		`{"conversationId":"","x":1}`: "",
		`42`:                          "",
	}
	for raw, want := range cases {
		if got := roomID(json.RawMessage(raw)); got != want {
			t.Fatalf("roomID(%s) = %q, want %q", raw, got, want)
		}
	}
	if got := roomID(nil); got != "" {
		t.Fatalf("roomID(nil) = %q", got)
	}
}

func TestCheckOrigin(t *testing.T) {
	h := &Handler{AllowedOrigins: []string{"http://127.0.0.1:5173"}}

	req := httptest.NewRequest("GET", "http://chat.local/ws", nil)
	if !h.checkOrigin(req) {
		t.Fatal("request without Origin rejected")
	}
	req.Header.Set("Origin", "http://127.0.0.1:5173")
	if !h.checkOrigin(req) {
		t.Fatal("configured origin rejected")
	}
	req.Header.Set("Origin", "http://chat.local")
	if !h.checkOrigin(req) {
		t.Fatal("same-host origin rejected")
	}
	req.Header.Set("Origin", "http://evil.example")
	if h.checkOrigin(req) {
		t.Fatal("unknown origin accepted")
	}
}
