// Package model defines the persistent entities of the usergate service.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Roles is an ordered list of role names, stored as a JSON column.
type Roles []string

func (r Roles) Value() (driver.Value, error) {
	if r == nil {
		r = Roles{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (r *Roles) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), r)
	case []byte:
		return json.Unmarshal(v, r)
	default:
		return fmt.Errorf("cannot scan roles from %T", value)
	}
}

func (r Roles) Contains(role string) bool {
	for _, have := range r {
		if have == role {
			return true
		}
	}
	return false
}

// User is a stored account record. Password holds a bcrypt hash and the two
// code fields hold single-use tokens; none of the three may ever reach a
// client, so they are excluded from JSON regardless of the redaction
// allow-list.
type User struct {
	Id               int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Username         string     `json:"name" gorm:"column:name;uniqueIndex"`
	Password         string     `json:"-"`
	Email            string     `json:"email" gorm:"uniqueIndex"`
	Roles            Roles      `json:"roles" gorm:"type:text"`
	Enabled          bool       `json:"enabled"`
	Verified         *time.Time `json:"verified,omitempty"`
	VerificationCode string     `json:"-" gorm:"index"`
	ResetCode        string     `json:"-" gorm:"column:code;index"`
	CodeIssuedAt     *time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Redact projects the user onto the allow-listed field subset. Secret fields
// are dropped even when listed.
func (u *User) Redact(fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		switch field {
		case "id":
			out["id"] = u.Id
		case "name", "username":
			out["name"] = u.Username
		case "email":
			out["email"] = u.Email
		case "roles":
			roles := u.Roles
			if roles == nil {
				roles = Roles{}
			}
			out["roles"] = roles
		case "enabled":
			out["enabled"] = u.Enabled
		case "verified":
			if u.Verified != nil {
				out["verified"] = *u.Verified
			}
		}
	}
	return out
}

// Sanitized returns a copy safe to hold in a session: the hash and both
// single-use codes are cleared, identity and authorization fields remain.
func (u *User) Sanitized() User {
	clean := *u
	clean.Password = ""
	clean.VerificationCode = ""
	clean.ResetCode = ""
	clean.CodeIssuedAt = nil
	return clean
}
