package core

// HTTP header names used across REST operations.
const (
	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderUserAgent     = "User-Agent"
	HeaderRequestID     = "X-Request-Id"
)

// HTTP content types.
const (
	ContentTypeJSON          = "application/json"
	ContentTypeMultipartForm = "multipart/form-data"
	ContentTypeTextPlain     = "text/plain"
	ContentTypeOctetStream   = "application/octet-stream"
)

// HTTP authentication types.
const (
	AuthTypeBasic = "Basic"
)

// Environment variables resolved by FromEnv.
const (
	EnvBaseURL  = "REDIS_ENTERPRISE_URL"
	EnvUsername = "REDIS_ENTERPRISE_USER"
	EnvPassword = "REDIS_ENTERPRISE_PASSWORD"
	EnvInsecure = "REDIS_ENTERPRISE_INSECURE"
	EnvLogLevel = "REDIS_ENTERPRISE_LOG"
)

// Defaults applied by config validators.
const (
	DefaultBaseURL  = "https://localhost:9443"
	DefaultUsername = "admin@redis.local"
)
