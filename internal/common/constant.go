package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token
// on binary downloads and editor sessions.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in AuthorizationHeaderName.
const BearerPrefix = "Bearer "
