package domain

import "time"

const (
	DefaultPort = "8080"

	// LiveReloadPath is where browser pages open their reload websocket.
	LiveReloadPath = "/__livereload"

	// WatchDebounce coalesces editor save bursts into one change.
	WatchDebounce = 150 * time.Millisecond
)

// CORS headers attached to every response.
var CorsHeaders = [][2]string{
	{"Access-Control-Allow-Origin", "*"},
	{"Access-Control-Allow-Methods", "GET, POST, OPTIONS"},
	{"Access-Control-Allow-Headers", "*"},
}

// ReloadMessage is pushed to live-reload clients.
type ReloadMessage struct {
	Type string `json:"type"`
	Path string `json:"path"`
}
