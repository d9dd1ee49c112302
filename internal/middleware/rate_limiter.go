package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

const maxKeyBodyBytes = 1 << 20

// RateLimiter limits every endpoint to 100 requests per 15 minutes per IP.
func RateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(100, 15*time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(limitExceeded("Too many requests. Try again in 15 minutes.")),
	)
}

// LoginRateLimiter allows 5 login requests per 15 minutes for each IP and
// email pair.
func LoginRateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(5, 15*time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, KeyByEmail),
		httprate.WithLimitHandler(limitExceeded("Too many login attempts. Try again in 15 minutes.")),
	)
}

// PasswordReminderRateLimiter allows 3 reminder requests per hour per email,
// falling back to the client IP when the body carries no email.
func PasswordReminderRateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(3, time.Hour,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if email := emailFromBody(r); email != "" {
				return email, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(limitExceeded("Too many password reminder requests. Try again in 1 hour.")),
	)
}

// KeyByEmail keys a request by the email field of its JSON body.
func KeyByEmail(r *http.Request) (string, error) {
	if email := emailFromBody(r); email != "" {
		return email, nil
	}
	return "unknown", nil
}

// emailFromBody peeks at up to maxKeyBodyBytes of the JSON body. The full body
// stays readable by the next handler.
func emailFromBody(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	orig := r.Body
	body, err := io.ReadAll(io.LimitReader(orig, maxKeyBodyBytes))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(body), orig), orig}
	if err != nil {
		return ""
	}

	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.Email
}

func limitExceeded(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", message)
	}
}
