package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolesValueScan(t *testing.T) {
	value, err := Roles{"admin", "user"}.Value()
	assert.NoError(t, err)
	assert.Equal(t, `["admin","user"]`, value)

	var scanned Roles
	require.NoError(t, scanned.Scan(`["admin","user"]`))
	assert.Equal(t, Roles{"admin", "user"}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	// A nil slice still stores a valid JSON array.
	value, err = Roles(nil).Value()
	assert.NoError(t, err)
	assert.Equal(t, "[]", value)

	assert.Error(t, scanned.Scan(42))
}

func TestRolesContains(t *testing.T) {
	roles := Roles{"admin", "user"}
	assert.True(t, roles.Contains("admin"))
	assert.False(t, roles.Contains("editor"))
	assert.False(t, Roles(nil).Contains("admin"))
}

func TestUserRedact(t *testing.T) {
	now := time.Now()
	user := &User{
		Id:               7,
		Username:         "alice",
		Password:         "$2a$10$hash",
		Email:            "alice@example.com",
		Roles:            Roles{"user"},
		Enabled:          true,
		Verified:         &now,
		VerificationCode: "vcode",
		ResetCode:        "rcode",
		CodeIssuedAt:     &now,
	}

	out := user.Redact([]string{"name", "email", "roles"})
	assert.Equal(t, map[string]any{
		"name":  "alice",
		"email": "alice@example.com",
		"roles": Roles{"user"},
	}, out)

	// Secrets stay out even when the allow-list asks for them.
	out = user.Redact([]string{"id", "password", "code", "verification_code", "enabled", "verified"})
	assert.Equal(t, 7, out["id"])
	assert.Equal(t, true, out["enabled"])
	assert.Equal(t, now, out["verified"])
	assert.NotContains(t, out, "password")
	assert.NotContains(t, out, "code")
	assert.NotContains(t, out, "verification_code")

	// "username" is accepted as an alias but always emitted as "name".
	out = user.Redact([]string{"username"})
	assert.Equal(t, map[string]any{"name": "alice"}, out)

	// Unverified users carry no verified field at all.
	user.Verified = nil
	out = user.Redact([]string{"verified"})
	assert.NotContains(t, out, "verified")

	// Nil roles are emitted as an empty list, never null.
	user.Roles = nil
	out = user.Redact([]string{"roles"})
	assert.Equal(t, Roles{}, out["roles"])
}

func TestUserSanitized(t *testing.T) {
	now := time.Now()
	user := &User{
		Id:               7,
		Username:         "alice",
		Password:         "$2a$10$hash",
		Email:            "alice@example.com",
		Roles:            Roles{"admin"},
		Enabled:          true,
		Verified:         &now,
		VerificationCode: "vcode",
		ResetCode:        "rcode",
		CodeIssuedAt:     &now,
	}

	clean := user.Sanitized()
	assert.Empty(t, clean.Password)
	assert.Empty(t, clean.VerificationCode)
	assert.Empty(t, clean.ResetCode)
	assert.Nil(t, clean.CodeIssuedAt)
	assert.Equal(t, "alice", clean.Username)
	assert.Equal(t, Roles{"admin"}, clean.Roles)
	assert.Equal(t, &now, clean.Verified)

	// The original record is untouched.
	assert.Equal(t, "$2a$10$hash", user.Password)
	assert.Equal(t, "rcode", user.ResetCode)
}
