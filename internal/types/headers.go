package types

const (
	HeaderAuthorization  = "Authorization"
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)
