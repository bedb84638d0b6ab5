package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeTriggers(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := w.Header().Get("HX-Trigger")
	if raw == "" {
		t.Fatal("HX-Trigger header not set")
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v (%s)", err, raw)
	}
	return got
}

func TestReloadResponse(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerDatasetReloaded(7).
		TriggerSuccessNotification("Budget reloaded").
		Status(http.StatusNoContent).
		Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}

	triggers := decodeTriggers(t, w)
	if got := string(triggers[DatasetReloadedEvent]); got != `{"version":7}` {
		t.Errorf("%s = %s", DatasetReloadedEvent, got)
	}
	var n notification
	if err := json.Unmarshal(triggers[NotificationEvent], &n); err != nil {
		t.Fatalf("notification: %v", err)
	}
	if n.Type != NotificationSuccess || n.Message != "Budget reloaded" || n.Duration != 3000 {
		t.Errorf("notification = %+v", n)
	}
}

func TestNotifyDurations(t *testing.T) {
	tests := []struct {
		kind NotificationType
		want int64
	}{
		{NotificationSuccess, 3000},
		{NotificationError, 5000},
		{NotificationInfo, 3000},
		{NotificationType("unknown"), 3000},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHTMXResponse().Notify(tt.kind, "x").Write(w)
			var n notification
			if err := json.Unmarshal(decodeTriggers(t, w)[NotificationEvent], &n); err != nil {
				t.Fatal(err)
			}
			if n.Duration != tt.want {
				t.Errorf("duration = %d, want %d", n.Duration, tt.want)
			}
		})
	}
}

func TestRedirectWithoutTriggers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/login?next=%2F").Write(w)

	if w.Header().Get("HX-Redirect") != "/login?next=%2F" {
		t.Errorf("HX-Redirect = %q", w.Header().Get("HX-Redirect"))
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should be absent without triggers")
	}
	if w.Header().Get("Content-Type") != "" {
		t.Error("no content type without a fragment")
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid request format"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error" role="alert">Invalid request format</div>`,
		},
		{
			name:       "data source",
			builder:    ErrorResponse(http.StatusServiceUnavailable, `data source budget.csv: missing column "Category"`),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `<div class="error" role="alert">data source budget.csv: missing column &#34;Category&#34;</div>`,
		},
		{
			name:       "script is escaped",
			builder:    BadRequestError("<script>alert(1)</script>"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error" role="alert">&lt;script&gt;alert(1)&lt;/script&gt;</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}
