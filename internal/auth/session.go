package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "techfeed"

// Session is the authenticated state attached to a client.
type Session struct {
	ID        string
	UserID    int64
	LoggedIn  bool
	ExpiresAt time.Time
}

type sessionClaims struct {
	UserID   int64 `json:"user_id"`
	LoggedIn bool  `json:"logged_in"`
	jwtlib.RegisteredClaims
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// SessionManager starts, clears and reads sessions stored in a signed cookie.
type SessionManager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &SessionManager{
		secret:     []byte(cfg.Secret),
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		now:        time.Now,
	}, nil
}

// Start replaces whatever session the client had with a fresh one for userID.
func (m *SessionManager) Start(w http.ResponseWriter, userID int64) (*Session, error) {
	now := m.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		LoggedIn:  true,
		ExpiresAt: now.Add(m.ttl),
	}
	claims := sessionClaims{
		UserID:   sess.UserID,
		LoggedIn: sess.LoggedIn,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    sessionIssuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Clear drops the client's session. Calling it without an active session is fine.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Current returns the logged-in session carried by r, if any.
func (m *SessionManager) Current(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, false
	}

	var claims sessionClaims
	parsed, err := jwtlib.ParseWithClaims(cookie.Value, &claims, func(t *jwtlib.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}),
		jwtlib.WithIssuer(sessionIssuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	if !claims.LoggedIn || claims.UserID <= 0 {
		return nil, false
	}

	sess := &Session{
		ID:       claims.ID,
		UserID:   claims.UserID,
		LoggedIn: claims.LoggedIn,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, true
}
