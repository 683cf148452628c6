package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeySessionID = "session_id"
	ContextKeyRequestID = "request_id"

	// Database table names
	TableUsers    = "users"
	TableSessions = "sessions"

	// Avatar upload constraints
	AvatarMaxBytes = 2 << 20 // 2 MiB
)

// AvatarContentTypes lists the accepted avatar image MIME types.
var AvatarContentTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}
