package daraja

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// ProductionBaseURL is the live gateway URL.
	ProductionBaseURL = "https://api.safaricom.co.ke"
	// SandboxBaseURL is the sandbox gateway URL.
	SandboxBaseURL = "https://sandbox.safaricom.co.ke"
)

// Gateway sub-paths.
const (
	pathOAuth       = "/oauth/v1/generate?grant_type=client_credentials"
	pathSTKPush     = "/mpesa/stkpush/v1/processrequest"
	pathSTKQuery    = "/mpesa/stkpushquery/v1/query"
	pathC2BRegister = "/mpesa/c2b/v1/registerurl"
	pathC2BSimulate = "/mpesa/c2b/v1/simulate"
	pathB2C         = "/mpesa/b2c/v1/paymentrequest"
	pathB2B         = "/mpesa/b2b/v1/paymentrequest"
	pathBalance     = "/mpesa/accountbalance/v1/query"
	pathStatus      = "/mpesa/transactionstatus/v1/query"
	pathReversal    = "/mpesa/reversal/v1/request"
	pathQR          = "/mpesa/qrcode/v1/generate"
)

// tokenRefreshSkew is subtracted from the token expiry so a token is never
// used when it could expire mid-flight.
const tokenRefreshSkew = 60 * time.Second

// maxResponseSize is the maximum allowed response body size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client is the Daraja gateway client with OAuth bearer authentication.
type Client struct {
	httpClient *http.Client
	config     Config
	baseURL    string
	debug      bool

	tokenMu     sync.RWMutex
	accessToken string
	tokenExp    time.Time

	now func() time.Time
}

// NewClient creates a new Daraja client. The environment selects exactly one
// base URL set unless Config.BaseURL overrides it.
func NewClient(config Config) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		if config.Environment == EnvironmentProduction {
			baseURL = ProductionBaseURL
		} else {
			baseURL = SandboxBaseURL
		}
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		config:     config,
		baseURL:    baseURL,
		debug:      os.Getenv("ENV") == "development",
		now:        time.Now,
	}
}

// Environment returns the environment the client was built for.
func (c *Client) Environment() Environment {
	return c.config.Environment
}

// ensureToken returns a cached access token while valid, otherwise performs a
// blocking refresh. Concurrent callers collapse into a single credential
// exchange: the first caller holding the write lock refreshes, the rest pass
// the double check and reuse its result.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.tokenMu.RLock()
	if c.tokenValidLocked() {
		token := c.accessToken
		c.tokenMu.RUnlock()
		return token, nil
	}
	c.tokenMu.RUnlock()

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Double check: another caller may have refreshed while we waited.
	if c.tokenValidLocked() {
		return c.accessToken, nil
	}

	resp, err := c.exchangeCredentials(ctx)
	if err != nil {
		return "", err
	}

	expiresIn, err := strconv.Atoi(resp.ExpiresIn)
	if err != nil || expiresIn <= 0 {
		return "", &AuthError{Message: fmt.Sprintf("malformed expires_in %q in token response", resp.ExpiresIn)}
	}

	c.accessToken = resp.AccessToken
	c.tokenExp = c.now().Add(time.Duration(expiresIn) * time.Second)

	log.Info().Time("expires_at", c.tokenExp).Msg("[DARAJA] Access token refreshed")

	return c.accessToken, nil
}

// tokenValidLocked reports whether the cached token is still usable. Callers
// must hold tokenMu.
func (c *Client) tokenValidLocked() bool {
	return c.accessToken != "" && c.now().Before(c.tokenExp.Add(-tokenRefreshSkew))
}

// GenerateToken performs an explicit OAuth credential exchange and caches the
// result. Most callers rely on the implicit refresh instead.
func (c *Client) GenerateToken(ctx context.Context) (*TokenResponse, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	resp, err := c.exchangeCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if expiresIn, convErr := strconv.Atoi(resp.ExpiresIn); convErr == nil && expiresIn > 0 {
		c.accessToken = resp.AccessToken
		c.tokenExp = c.now().Add(time.Duration(expiresIn) * time.Second)
	}
	return resp, nil
}

// exchangeCredentials performs the oauth GET with basic authentication.
// Callers must hold tokenMu.
func (c *Client) exchangeCredentials(ctx context.Context) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathOAuth, nil)
	if err != nil {
		return nil, &AuthError{Message: "failed to create token request", Err: err}
	}
	req.Header.Set("Authorization", "Basic "+basicAuth(c.config.ConsumerKey, c.config.ConsumerSecret))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Message: "credential exchange failed", Err: &NetworkError{Err: err}}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &AuthError{Message: "failed to read token response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AuthError{Message: "credential exchange rejected", Err: gatewayError(resp.StatusCode, body)}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, &AuthError{Message: "malformed token response", Err: err}
	}
	if token.AccessToken == "" {
		return nil, &AuthError{Message: "token response missing access_token"}
	}
	return &token, nil
}

// doRequest performs an authenticated POST against a gateway sub-path and
// decodes the response into result.
func (c *Client) doRequest(ctx context.Context, path string, body any, result any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", c.baseURL+path).
			RawJSON("request", sanitizeForLog(payload)).
			Msg("[DARAJA] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &NetworkError{Err: err}
	}

	if c.debug {
		log.Debug().
			Str("endpoint", path).
			Int("status_code", resp.StatusCode).
			RawJSON("response", sanitizeForLog(respBody)).
			Msg("[DARAJA] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gatewayError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &DecodingError{Err: err}
	}

	return nil
}

// gatewayError converts a non-2xx response into a GatewayError, preferring
// the gateway-supplied error fields when the body carries them.
func gatewayError(status int, body []byte) *GatewayError {
	ge := &GatewayError{
		Code:       fmt.Sprintf("HTTP_%d", status),
		Message:    strings.TrimSpace(string(body)),
		HTTPStatus: status,
		RawBody:    body,
	}
	if ge.Message == "" {
		ge.Message = http.StatusText(status)
	}
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.ErrorCode != "" {
			ge.Code = errResp.ErrorCode
		}
		if errResp.ErrorMessage != "" {
			ge.Message = errResp.ErrorMessage
		}
	}
	return ge
}

// sanitizeForLog removes or masks sensitive fields from JSON for logging
func sanitizeForLog(data []byte) []byte {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return []byte(`{"_error": "failed to parse for sanitization"}`)
	}

	// List of sensitive field names to mask
	sensitiveFields := []string{"password", "securitycredential", "passkey", "secret", "token"}

	sanitizeMap(obj, sensitiveFields)

	sanitized, err := json.Marshal(obj)
	if err != nil {
		return []byte(`{"_error": "failed to marshal sanitized data"}`)
	}
	return sanitized
}

// sanitizeMap recursively masks sensitive fields in a map
func sanitizeMap(obj map[string]any, sensitiveFields []string) {
	for key, value := range obj {
		keyLower := strings.ToLower(key)
		for _, sensitive := range sensitiveFields {
			if strings.Contains(keyLower, sensitive) {
				obj[key] = "***MASKED***"
				break
			}
		}
		if nested, ok := value.(map[string]any); ok {
			sanitizeMap(nested, sensitiveFields)
		}
	}
}

// requireInitiator checks that initiator credentials are configured for
// elevated operations.
func (c *Client) requireInitiator() error {
	if c.config.InitiatorName == "" || c.config.InitiatorPassword == "" {
		return &ConfigurationError{Message: "initiator credentials are required for this operation"}
	}
	return nil
}
