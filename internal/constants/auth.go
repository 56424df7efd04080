package constants

const (
	AuthTokenCookieName = "auth_token"
	CSRFTokenCookieName = "csrf_token"

	RoleAdmin  = "admin"
	RoleEditor = "editor"
)
