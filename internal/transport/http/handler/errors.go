package handler

const (
	errInternalServer     = "Internal server error"
	errMissingFields      = "Missing required fields"
	errInvalidCredentials = "Invalid email or password"
	errNotAuthenticated   = "Not authenticated"
	errUserExists         = "User already exists"
	errAlreadyConfirmed   = "Email already confirmed"
	errTokenNotFound      = "Token not found"
	errTokenExpired       = "Token expired"
	errUserNotFound       = "User not found"
)
