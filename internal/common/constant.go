package common

// Session transport names. The bearer header is preferred; the cookie is the
// fallback for browser clients.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
	SessionCookieName       = "jwt"
)

// DefaultProfileImageRef is stored when an account registers without a photo.
const DefaultProfileImageRef = "uploads/users/default.jpeg"
