package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Profile is keyed by the identity provider's user id.
type Profile struct {
	ID          string      `db:"id" json:"id"`
	DisplayName string      `db:"display_name" json:"display_name"`
	Bio         string      `db:"bio" json:"bio"`
	AvatarURL   string      `db:"avatar_url" json:"avatar_url"`
	Preferences Preferences `db:"preferences" json:"preferences"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
	LastSignIn  *time.Time  `db:"last_sign_in" json:"last_sign_in,omitempty"`
}

// ProfileUpdate carries a partial update. Nil fields are left untouched,
// a nil value inside Preferences removes that key.
type ProfileUpdate struct {
	DisplayName *string        `json:"display_name,omitempty"`
	Bio         *string        `json:"bio,omitempty"`
	AvatarURL   *string        `json:"avatar_url,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// Preferences is an opaque key-value bag stored as JSON text.
type Preferences map[string]any

func (p Preferences) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Preferences) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = Preferences{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("preferences: unsupported type %T", src)
	}

	if len(raw) == 0 {
		*p = Preferences{}
		return nil
	}

	out := Preferences{}
	err := json.Unmarshal(raw, &out)
	if err != nil {
		return fmt.Errorf("preferences: %w", err)
	}
	*p = out
	return nil
}

// String returns the preference as a string, or "" when absent or not a string.
func (p Preferences) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Bool returns the preference as a bool, or def when absent or not a bool.
func (p Preferences) Bool(key string, def bool) bool {
	b, ok := p[key].(bool)
	if !ok {
		return def
	}
	return b
}
