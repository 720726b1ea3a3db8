package api_v1

const (
	FailedAuthenticationMsg = "wrong secret key"
)
