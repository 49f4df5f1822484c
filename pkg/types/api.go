package types

// ElementStatus summarizes one element of the hosted document for /elements.
type ElementStatus struct {
	// Stable element id within the document.
	// example: sidebar
	ID string `json:"id" example:"sidebar"`
	// Id of the parent element; empty for the document root.
	// example: app
	Parent string `json:"parent,omitempty" example:"app"`
	// Whether the element is currently attached to the document tree.
	// example: true
	Attached bool `json:"attached" example:"true"`
	// Whether the daemon's built-in observer watches this element.
	// example: true
	Watched bool `json:"watched" example:"true"`
	// Current content rectangle as measured right now.
	ContentRect Rect `json:"content_rect"`
}

// ElementsResponse wraps the element list returned by GET /elements.
type ElementsResponse struct {
	Elements []ElementStatus `json:"elements"`
}

// StylePatch is a partial style update for PATCH /elements/{id}/style.
// Nil fields are left untouched.
type StylePatch struct {
	Display *string  `json:"display,omitempty" example:"block"`
	Width   *float64 `json:"width,omitempty" example:"320"`
	Height  *float64 `json:"height,omitempty" example:"240"`

	PaddingTop    *float64 `json:"padding_top,omitempty"`
	PaddingRight  *float64 `json:"padding_right,omitempty"`
	PaddingBottom *float64 `json:"padding_bottom,omitempty"`
	PaddingLeft   *float64 `json:"padding_left,omitempty"`

	BorderTop    *float64 `json:"border_top,omitempty"`
	BorderRight  *float64 `json:"border_right,omitempty"`
	BorderBottom *float64 `json:"border_bottom,omitempty"`
	BorderLeft   *float64 `json:"border_left,omitempty"`

	BoxSizing *string `json:"box_sizing,omitempty" example:"border-box"`
}

// TransitionRequest names a CSS property whose transition just completed.
type TransitionRequest struct {
	// Property name, e.g. "width" or "max-height".
	// example: width
	Property string `json:"property" example:"width"`
}

// ViewportRequest sets the host viewport size (fires the resize signal).
type ViewportRequest struct {
	Width  float64 `json:"width" example:"1280"`
	Height float64 `json:"height" example:"720"`
}

// CreateObserverRequest registers a new observer over a set of element ids.
type CreateObserverRequest struct {
	// Ids of elements to observe. Must be non-empty and all resolvable.
	// example: ["sidebar","main"]
	Targets []string `json:"targets"`
}

// ObserverStatus summarizes one live observer for /observers.
type ObserverStatus struct {
	// Server-assigned observer id ("builtin" for the scene observer).
	// example: obs-1
	ID string `json:"id" example:"obs-1"`
	// Ids of the elements currently observed.
	Targets []string `json:"targets"`
	// Number of notification batches delivered so far.
	// example: 4
	Batches uint64 `json:"batches" example:"4"`
}

// ObserversResponse wraps the observer list returned by GET /observers.
type ObserversResponse struct {
	Observers []ObserverStatus `json:"observers"`
}

// EntryPayload is one (target, contentRect) pair of a notification batch.
type EntryPayload struct {
	Target      string `json:"target" example:"sidebar"`
	ContentRect Rect   `json:"content_rect"`
}

// BatchPayload is one delivered notification batch, as streamed on /events.
type BatchPayload struct {
	// Observer that received the batch.
	// example: builtin
	Observer string `json:"observer" example:"builtin"`
	// Entries in gather order.
	Entries []EntryPayload `json:"entries"`
	// Server time of delivery in unix milliseconds.
	// example: 1700000000000
	TimeUnixMS int64 `json:"time_unix_ms" example:"1700000000000"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Number of elements in the hosted document.
	// example: 12
	Elements int `json:"elements" example:"12"`
	// Live observers (builtin + API-created).
	// example: 2
	Observers int `json:"observers" example:"2"`
	// Total registered observations across all observers.
	// example: 7
	Observations int `json:"observations" example:"7"`
	// Whether scheduler signal subscriptions are currently installed.
	// example: true
	Connected bool `json:"connected" example:"true"`
	// Whether the degraded coarse-signal fallback path is active.
	// example: false
	FallbackSignal bool `json:"fallback_signal" example:"false"`
	// Minimum interval between throttled refresh executions, in ms.
	// example: 20
	RefreshIntervalMS int `json:"refresh_interval_ms" example:"20"`
	// Total notification batches delivered since start.
	// example: 31
	BatchesTotal uint64 `json:"batches_total" example:"31"`
	// Path of the scene file driving the document, if any.
	ScenePath string `json:"scene_path,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
