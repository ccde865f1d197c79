package identity

import (
	"net/http"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/sessions"
)

const SessionCookieName = "____jd"

// Identity is the acting user as the core sees it: an opaque identifier plus
// the profile attributes the account page edits. Issuance and verification
// live in the external auth service.
type Identity struct {
	ID       string
	Email    string
	FullName string
}

type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	jwt.StandardClaims
}

// Accounts is the slice of the external auth collaborator the core calls
// into. Every method is a single request/response mutation.
type Accounts interface {
	UpdateName(userID, fullName string) error
	UpdateEmail(userID, email string) error
	UpdatePassword(userID, password string) error
}

// SessionService reads the acting identity out of the session cookie JWT and
// terminates sessions. Absence or any parse failure means not authenticated,
// never an error.
type SessionService struct {
	sessionStore *sessions.CookieStore
	jwtKey       []byte
}

func NewSessionService(sessionStore *sessions.CookieStore, jwtKey []byte) *SessionService {
	return &SessionService{sessionStore: sessionStore, jwtKey: jwtKey}
}

// Current returns the acting identity, or nil when the request carries no
// valid session.
func (s *SessionService) Current(r *http.Request) *Identity {
	sess, err := s.sessionStore.Get(r, SessionCookieName)
	if err != nil {
		return nil
	}
	tk, ok := sess.Values["jwt"].(string)
	if !ok {
		return nil
	}
	token, err := jwt.ParseWithClaims(tk, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil
	}
	return &Identity{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
	}
}

// SignOut drops the session. Used after a confirmed email or password change,
// which deliberately requires re-authentication.
func (s *SessionService) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.sessionStore.Get(r, SessionCookieName)
	if err != nil {
		return err
	}
	delete(sess.Values, "jwt")
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
