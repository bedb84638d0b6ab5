// Package http serves the budget review dashboard.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"
)

// Events the dashboard listens for on <body>.
const (
	// DatasetReloadedEvent makes every dashboard panel refetch itself.
	DatasetReloadedEvent = "dataset:reloaded"
	// NotificationEvent shows a toast, handled in static/app.js.
	NotificationEvent = "show-notification"
)

// NotificationType selects the toast style.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

// toastDuration is how long each toast type stays on screen.
var toastDuration = map[NotificationType]time.Duration{
	NotificationSuccess: 3 * time.Second,
	NotificationError:   5 * time.Second,
	NotificationInfo:    3 * time.Second,
}

type notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int64            `json:"duration"`
}

// HTMXResponseBuilder assembles a response for an HTMX request: status,
// HX-* headers and an optional HTML fragment.
type HTMXResponseBuilder struct {
	status   int
	triggers map[string]any
	redirect string
	fragment string
}

// NewHTMXResponse starts a 200 response with no body.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{status: http.StatusOK, triggers: map[string]any{}}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

// Trigger adds an event to the HX-Trigger header. Later calls with the
// same name replace earlier ones.
func (b *HTMXResponseBuilder) Trigger(name string, detail any) *HTMXResponseBuilder {
	b.triggers[name] = detail
	return b
}

// TriggerDatasetReloaded announces a new snapshot version.
func (b *HTMXResponseBuilder) TriggerDatasetReloaded(version int64) *HTMXResponseBuilder {
	return b.Trigger(DatasetReloadedEvent, map[string]int64{"version": version})
}

// Notify queues a toast.
func (b *HTMXResponseBuilder) Notify(kind NotificationType, message string) *HTMXResponseBuilder {
	d, ok := toastDuration[kind]
	if !ok {
		d = toastDuration[NotificationInfo]
	}
	return b.Trigger(NotificationEvent, notification{Type: kind, Message: message, Duration: d.Milliseconds()})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.Notify(NotificationSuccess, message)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.Notify(NotificationError, message)
}

// Redirect asks htmx to navigate the whole page to url.
func (b *HTMXResponseBuilder) Redirect(url string) *HTMXResponseBuilder {
	b.redirect = url
	return b
}

// Fragment sets an already-escaped HTML body.
func (b *HTMXResponseBuilder) Fragment(html string) *HTMXResponseBuilder {
	b.fragment = html
	return b
}

// Write sends the response. Headers must be set before the status line,
// so nothing may be written to w before calling Write.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	if len(b.triggers) > 0 {
		if payload, err := json.Marshal(b.triggers); err == nil {
			h.Set("HX-Trigger", string(payload))
		}
	}
	if b.redirect != "" {
		h.Set("HX-Redirect", b.redirect)
	}
	if b.fragment != "" {
		h.Set("Content-Type", "text/html; charset=utf-8")
	}
	w.WriteHeader(b.status)
	if b.fragment != "" {
		_, _ = w.Write([]byte(b.fragment))
	}
}

// ErrorResponse is an error fragment matching the error_panel template.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		Fragment(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

// BadRequestError is ErrorResponse with 400.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}
