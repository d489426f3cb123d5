package domain

// DefaultRoom is where a login without an explicit room lands.
const DefaultRoom = "General"

// ==== WebSocket Constants ====

// MaxMessageSize is the default maximum websocket frame size in bytes.
// File uploads travel inside frames, so this also bounds upload payloads.
const MaxMessageSize = 1 << 20

// MaxUploadSize is the default cap on decoded upload bytes.
const MaxUploadSize = 512 << 10

// ==== Rate Limit Constants ====

const (
	// DefaultRateLimitAPI is the default rate limit for API endpoints (requests/sec)
	DefaultRateLimitAPI = 10

	// DefaultRateLimitWS is the default rate limit for WebSocket upgrades (req/sec)
	DefaultRateLimitWS = 5
)
