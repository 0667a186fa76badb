package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// CookieName is the cookie that carries the session token.
const CookieName = "accessToken"

// Sessions checks credentials, issues session cookies and authorizes
// requests.
type Sessions struct {
	clientID     string
	clientSecret string
	secure       bool
	signer       *Signer
}

// NewSessions builds the session collaborator from cfg and signer.
func NewSessions(cfg Config, signer *Signer) *Sessions {
	return &Sessions{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		secure:       cfg.CookieSecure,
		signer:       signer,
	}
}

// Login verifies the client credentials and returns a signed token and its
// expiry.
func (s *Sessions) Login(clientID, clientSecret string) (string, time.Time, error) {
	idOK := subtle.ConstantTimeCompare([]byte(clientID), []byte(s.clientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(clientSecret), []byte(s.clientSecret)) == 1
	if !idOK || !secretOK {
		return "", time.Time{}, types.NewError(types.CodeUnauthorized, "invalid client credentials")
	}
	return s.signer.Issue(clientID)
}

// Authorize verifies the token carried by r, from the session cookie or an
// Authorization bearer header.
func (s *Sessions) Authorize(r *http.Request) error {
	_, err := s.Claims(r)
	return err
}

// Claims returns the verified claims of the token carried by r.
func (s *Sessions) Claims(r *http.Request) (Claims, error) {
	return s.signer.Verify(tokenFromRequest(r))
}

// SessionCookie wraps token in the session cookie.
func (s *Sessions) SessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
