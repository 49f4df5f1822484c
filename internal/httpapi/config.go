package httpapi

// maxBodyBytes controls the maximum allowed request body size for JSON
// endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added
// and websocket upgrades accept any origin.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
}
