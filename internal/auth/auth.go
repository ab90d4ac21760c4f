package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName    = "pollengine_session"
	SessionExpiry = 24 * time.Hour
)

// Role distinguishes standard members from administrators
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Identity is the authenticated actor attached to a request.
// A zero MemberID means no authenticated identity is present.
type Identity struct {
	MemberID string
	Role     Role
}

// IsAdmin reports whether the identity carries the administrator role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Claims is the JWT payload for portal sessions
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type identityCtxKey struct{}

// Association-themed words for password generation
var passwordWords = []string{
	"agenda", "annonce", "bureau", "cotisation", "membre",
	"reunion", "scrutin", "secretaire", "tresorier", "vote",
	"quorum", "statuts", "adherent", "benevole", "conseil",
}

// Auth verifies portal session tokens and handles admin login.
// Member tokens are minted by the portal with the shared secret;
// this service only verifies them.
type Auth struct {
	secret    []byte
	adminHash []byte
}

// New creates an Auth instance with the given signing secret and admin password
func New(secret []byte, adminPassword string) (*Auth, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Auth{secret: secret, adminHash: hash}, nil
}

// GeneratePassword creates a random 3-word password
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		idx := randomInt(len(passwordWords))
		words[i] = passwordWords[idx]
	}
	return strings.Join(words, "-")
}

// SignToken issues a session token for the given identity
func (a *Auth) SignToken(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.MemberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseToken verifies a session token and returns the identity it carries
func (a *Auth) ParseToken(token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Identity{}, errors.New("invalid token")
	}
	role := Role(claims.Role)
	if role != RoleAdmin {
		role = RoleMember
	}
	return Identity{MemberID: claims.Subject, Role: role}, nil
}

// LoginAdmin validates the admin password and returns a session token if valid
func (a *Auth) LoginAdmin(password string) (string, bool) {
	if bcrypt.CompareHashAndPassword(a.adminHash, []byte(password)) != nil {
		return "", false
	}
	token, err := a.SignToken(Identity{MemberID: "admin", Role: RoleAdmin}, SessionExpiry)
	if err != nil {
		return "", false
	}
	return token, true
}

// IdentityFromRequest extracts the identity from the Authorization header
// or the session cookie. Returns a zero Identity when none is present.
func (a *Auth) IdentityFromRequest(r *http.Request) (Identity, bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if identity, err := a.ParseToken(token); err == nil {
			return identity, true
		}
		return Identity{}, false
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		if identity, err := a.ParseToken(cookie.Value); err == nil {
			return identity, true
		}
	}
	return Identity{}, false
}

// WithIdentity attaches the request's identity to the context when present
func (a *Auth) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := a.IdentityFromRequest(r); ok {
			ctx := context.WithValue(r.Context(), identityCtxKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentity middleware for member API endpoints (returns 401)
func (a *Auth) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin middleware for admin API endpoints (returns 401)
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok || !identity.IsAdmin() {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext returns the identity attached by WithIdentity
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(Identity)
	return identity, ok
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - please log in"}`))
}

// randomInt returns a random int in [0, max)
func randomInt(max int) int {
	bytes := make([]byte, 1)
	rand.Read(bytes)
	return int(bytes[0]) % max
}
