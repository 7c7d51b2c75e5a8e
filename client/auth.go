/*
auth.go - Login and session token handling

The backend issues a bearer token from a form-encoded login call. The
token's expiry is read from its JWT claims WITHOUT verifying the
signature: the client has no key and does not need one, it only wants to
know when to stop sending a token that the server would reject anyway.
A token inside the expiry slack window counts as already expired, so a
request never departs with a token about to die mid-flight.
*/
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// expirySlack is how close to expiry a token may get before the client
// treats it as expired.
const expirySlack = 30 * time.Second

// Session is one stored login.
type Session struct {
	Token  string
	Expiry time.Time // zero = unknown, token trusted until the server 401s
}

// Valid reports whether the session carries a usable token.
func (s Session) Valid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	if s.Expiry.IsZero() {
		return true
	}
	return now.Add(expirySlack).Before(s.Expiry)
}

// TokenStore persists the session between console runs. Implementations:
// NewMemoryTokenStore here, the sqlite store in store/sqlite.
type TokenStore interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// memoryTokenStore keeps the session for the process lifetime only.
type memoryTokenStore struct {
	mu      sync.Mutex
	session Session
}

// NewMemoryTokenStore returns a process-lifetime token store.
func NewMemoryTokenStore() TokenStore { return &memoryTokenStore{} }

func (m *memoryTokenStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *memoryTokenStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	return nil
}

func (m *memoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}

// TokenExpiry reads the exp claim from a JWT without verifying it.
// ok is false for opaque tokens or tokens without an exp claim.
func TokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Login authenticates with the backend's form-encoded login endpoint and
// stores the issued token. The expiry recorded in the session comes from
// the token's own claims when present.
func (c *Client) Login(ctx context.Context, loginID, password string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("username", loginID)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if body.AccessToken == "" {
		return errors.New("login response carried no access token")
	}

	session := Session{Token: body.AccessToken}
	if exp, ok := TokenExpiry(body.AccessToken); ok {
		session.Expiry = exp
	}
	if err := c.tokens.Save(session); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	c.log.Info("logged in", zap.String("user", loginID))
	return nil
}

// Logout drops the stored session. Purely local; the backend token simply
// ages out.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// HasValidSession reports whether a usable token is stored.
func (c *Client) HasValidSession() bool {
	session, err := c.tokens.Load()
	return err == nil && session.Valid(time.Now())
}

// CurrentUser fetches the profile behind the stored session.
func (c *Client) CurrentUser(ctx context.Context) (Member, error) {
	var m Member
	err := c.get(ctx, "/auth/me", nil, &m)
	return m, err
}
