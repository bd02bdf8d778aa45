package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("secret", "authenticated")

	token, err := v.Issue(AuthContext{UserID: "user-1", Email: "a@example.com", Name: "Alice"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ac, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ac.UserID != "user-1" || ac.Email != "a@example.com" || ac.Name != "Alice" {
		t.Errorf("auth context = %+v", ac)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("secret", "authenticated")

	expired, _ := v.Issue(AuthContext{UserID: "user-1"}, -time.Minute)
	otherKey, _ := NewVerifier("other", "authenticated").Issue(AuthContext{UserID: "user-1"}, time.Hour)
	otherAud, _ := NewVerifier("secret", "anon").Issue(AuthContext{UserID: "user-1"}, time.Hour)
	noSubject, _ := v.Issue(AuthContext{}, time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Audience: jwt.ClaimStrings{"authenticated"}},
	}).SignedString([]byte("secret"))
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong key", otherKey},
		{"wrong audience", otherAud},
		{"no subject", noSubject},
		{"no expiry", noExpiry},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
