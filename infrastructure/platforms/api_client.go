package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/apperror"
)

// Request is one authenticated platform API call. Form and JSON are mutually
// exclusive; Form wins when both are set.
type Request struct {
	Method      string
	URL         string
	AccessToken string
	Form        url.Values
	JSON        any
	Header      http.Header
	// Username and Password enable HTTP Basic client authentication.
	Username string
	Password string
}

// StatusError is a non-2xx platform response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

type APIClient struct {
	platform   string
	httpClient *http.Client
}

func NewAPIClient(platform string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &APIClient{platform: normalizeID(platform), httpClient: httpClient}
}

// HTTPClient is the client adapters hand to generated SDKs.
func (c *APIClient) HTTPClient() *http.Client { return c.httpClient }

// Do sends r and decodes a JSON response into out when out is non-nil. Transport
// failures come back classified as network or timeout errors, non-2xx responses
// as *StatusError.
func (c *APIClient) Do(ctx context.Context, r Request, out any) (http.Header, error) {
	var body io.Reader
	contentType := ""
	switch {
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.JSON != nil:
		buf, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if r.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.AccessToken)
	}
	if r.Username != "" {
		req.SetBasicAuth(url.QueryEscape(r.Username), url.QueryEscape(r.Password))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, TransportError(c.platform, "request failed", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return resp.Header, TransportError(c.platform, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.Header, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Header, nil
}

// IsTransport reports whether err is a connection level failure rather than a
// platform response.
func IsTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// TransportError classifies a failed round trip as a timeout or a network error.
func TransportError(platform, message string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperror.Wrap(apperror.KindTimeout, platform, message, err)
	}
	return apperror.Wrap(apperror.KindNetwork, platform, message, err)
}

// PublishFailure maps an API error from a publish call onto the error taxonomy.
// 401 and 403 mean the stored credential was rejected.
func PublishFailure(platform string, err error) error {
	return classify(platform, apperror.KindPublish, "publish rejected", true, err)
}

// ProfileFailure maps an identity lookup error. Every platform rejection is a
// profile fetch error; transport failures stay network or timeout errors.
func ProfileFailure(platform string, err error) error {
	return classify(platform, apperror.KindProfileFetch, "profile fetch failed", false, err)
}

func classify(platform string, kind apperror.Kind, message string, deniedIsAuth bool, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		denied := statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
		if denied && deniedIsAuth {
			return apperror.Upstream(apperror.KindAuthentication, platform, "credential rejected", statusErr.Body)
		}
		return apperror.Upstream(kind, platform, message, statusErr.Body)
	}
	return apperror.Wrap(kind, platform, message, err)
}
