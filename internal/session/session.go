// Package session keeps the identity provider's session in a single sealed,
// HttpOnly cookie.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/uxlens/uxlens/internal/model"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	CookieName     = "uxlens_session"
	FlowCookieName = "pkce_verifier"

	flowMaxAge = 10 * time.Minute
	nonceSize  = 24
)

var ErrInvalidCookie = errors.New("session: invalid cookie")

// Flow is the state carried across an OAuth or magic-link round trip.
type Flow struct {
	Verifier string `json:"v"`
	Next     string `json:"n,omitempty"`
}

type Store struct {
	key    [32]byte
	maxAge time.Duration
	secure bool
}

// NewStore derives the sealing key from secret.
func NewStore(secret string, maxAge time.Duration, secure bool) (*Store, error) {
	if len(secret) < 16 {
		return nil, errors.New("session: secret must be at least 16 characters")
	}

	s := &Store{maxAge: maxAge, secure: secure}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("uxlens session cookie v1"))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, fmt.Errorf("session: derive key: %w", err)
	}
	return s, nil
}

func (s *Store) seal(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}

	box := secretbox.Seal(nonce[:], plain, &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *Store) open(value string, v any) error {
	box, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return ErrInvalidCookie
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])

	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return ErrInvalidCookie
	}
	if err := json.Unmarshal(plain, v); err != nil {
		return ErrInvalidCookie
	}
	return nil
}

// Encode seals a session into a cookie value.
func (s *Store) Encode(sess *model.Session) (string, error) {
	return s.seal(sess)
}

// Decode opens a cookie value. Tampered or foreign values fail.
func (s *Store) Decode(value string) (*model.Session, error) {
	var sess model.Session
	if err := s.open(value, &sess); err != nil {
		return nil, err
	}
	if sess.AccessToken == "" || sess.UserID == "" {
		return nil, ErrInvalidCookie
	}
	return &sess, nil
}

// Read returns the session from the request cookie, or nil when absent or invalid.
func (s *Store) Read(r *http.Request) *model.Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	sess, err := s.Decode(cookie.Value)
	if err != nil {
		return nil
	}
	return sess
}

func (s *Store) Write(w http.ResponseWriter, sess *model.Session) error {
	value, err := s.Encode(sess)
	if err != nil {
		return err
	}
	s.setCookie(w, CookieName, value, s.maxAge)
	return nil
}

func (s *Store) Clear(w http.ResponseWriter) {
	s.setCookie(w, CookieName, "", -1)
}

// WriteFlow stores the PKCE verifier and post-sign-in target.
func (s *Store) WriteFlow(w http.ResponseWriter, flow Flow) error {
	value, err := s.seal(flow)
	if err != nil {
		return err
	}
	s.setCookie(w, FlowCookieName, value, flowMaxAge)
	return nil
}

// ReadFlow returns the flow state; the zero Flow when missing or invalid.
func (s *Store) ReadFlow(r *http.Request) Flow {
	var flow Flow
	cookie, err := r.Cookie(FlowCookieName)
	if err != nil {
		return flow
	}
	_ = s.open(cookie.Value, &flow)
	return flow
}

func (s *Store) ClearFlow(w http.ResponseWriter) {
	s.setCookie(w, FlowCookieName, "", -1)
}

func (s *Store) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(maxAge.Seconds())
		c.Expires = time.Now().Add(maxAge)
	}
	http.SetCookie(w, c)
}
