package handler

const (
	errInternalServer   = "Internal server error"
	errInvalidForm      = "Invalid form submission"
	errTooManyRequests  = "Too many login attempts, please try again later"
	errMagicLinkPrefix  = "There was an error validating the magic link: "
	msgCheckEmail       = "Check your email to finish logging in"
	msgLogoutSuccessful = "Logout successful"
)

const (
	PathApp   = "/app"
	PathLogin = "/login"
	PathHome  = "/"
)
