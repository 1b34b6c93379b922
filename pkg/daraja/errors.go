package daraja

import "fmt"

// ValidationError reports malformed or out-of-range input. It is always
// returned before any network call is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// ConfigurationError reports a client configuration problem, e.g. missing
// initiator credentials for an elevated operation, or a sandbox-only
// operation invoked against production.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

// AuthError reports a failed or malformed OAuth credential exchange.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error: %s: %v", e.Message, e.Err)
	}
	return "auth error: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError reports a transport-level failure. The request may or may not
// have reached the gateway; retry policy belongs to the caller.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// GatewayError reports a non-2xx response from the gateway. Code and Message
// carry the gateway-supplied error fields when the body contained them,
// otherwise Code falls back to "HTTP_<status>".
type GatewayError struct {
	Code       string
	Message    string
	HTTPStatus int
	RawBody    []byte
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: %s (code: %s, status: %d)", e.Message, e.Code, e.HTTPStatus)
}

// DecodingError reports a 2xx response body that did not match the expected
// shape.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }
