package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"raw token", "abc.def.ghi", "abc.def.ghi", nil},
		{"bearer prefix", "Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"lowercase bearer", "bearer abc", "abc", nil},
		{"empty", "", "", ErrMissingToken},
		{"bearer without token", "Bearer ", "", ErrMissingToken},
		{"other scheme", "Basic dXNlcjpwYXNz", "", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLocalJWTAuthRequiresSecret(t *testing.T) {
	_, err := NewLocalJWTAuth("", time.Hour)
	assert.Error(t, err)

	a, err := NewLocalJWTAuth("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, a.TokenExpiry)
}

func TestGenerateAndVerifyToken(t *testing.T) {
	a, err := NewLocalJWTAuth("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := a.GenerateToken("u-1", "alice@example.com", "user")
	require.NoError(t, err)

	id, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.ID)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, "user", id.Role)
}

func TestVerifyTokenErrors(t *testing.T) {
	a, err := NewLocalJWTAuth("test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := a.VerifyToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := a.VerifyToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := NewLocalJWTAuth("other-secret", time.Hour)
		token, err := other.GenerateToken("u-1", "alice@example.com", "user")
		require.NoError(t, err)
		_, err = a.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		claims := JWTClaims{
			UserID: "u-1",
			Email:  "alice@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(past),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.SecretKey)
		require.NoError(t, err)

		_, err = a.VerifyToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("missing email claim", func(t *testing.T) {
		claims := JWTClaims{
			UserID: "u-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.SecretKey)
		require.NoError(t, err)

		_, err = a.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret#123")
	require.NoError(t, err)
	assert.Contains(t, hash, "argon2id$")

	ok, err := VerifyPassword(hash, "Secret#123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "secret#123")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("plain", "Secret#123")
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secret#123"))
	assert.Error(t, ValidatePassword("S#1a"))
	assert.Error(t, ValidatePassword("secret#123"))
	assert.Error(t, ValidatePassword("SECRET#123"))
	assert.Error(t, ValidatePassword("Secret#abc"))
	assert.Error(t, ValidatePassword("Secret1234"))
}
