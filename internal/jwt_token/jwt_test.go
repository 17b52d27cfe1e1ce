package jwttoken

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "creditgate/pkg/domain-errors"
	"creditgate/pkg/requestcontext"
)

var jwtService = NewJWTService("test-signing-key", "creditgate", "creditgate-api", time.Minute)

func TestIssueAndValidate(t *testing.T) {
	token, err := jwtService.Issue(context.Background(), "analyst-42", []string{"access-credit-reports-for-employment"})
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "analyst-42", claims.Subject)
	assert.Equal(t, []string{"access-credit-reports-for-employment"}, claims.Capabilities)
	assert.Len(t, claims.JTI, 32)
}

func TestIssue_RequiresActor(t *testing.T) {
	_, err := jwtService.Issue(context.Background(), "", nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestValidate_Rejections(t *testing.T) {
	expiredCtx := requestcontext.WithTime(context.Background(), time.Now().Add(-time.Hour))
	expired, err := jwtService.Issue(expiredCtx, "analyst-42", nil)
	require.NoError(t, err)

	otherKey, err := NewJWTService("other-key", "creditgate", "creditgate-api", time.Minute).Issue(context.Background(), "analyst-42", nil)
	require.NoError(t, err)

	otherAudience, err := NewJWTService("test-signing-key", "creditgate", "someone-else", time.Minute).Issue(context.Background(), "analyst-42", nil)
	require.NoError(t, err)

	otherIssuer, err := NewJWTService("test-signing-key", "impostor", "creditgate-api", time.Minute).Issue(context.Background(), "analyst-42", nil)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "analyst-42",
			Issuer:    "creditgate",
			Audience:  []string{"creditgate-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct {
		token string
		msg   string
	}{
		"garbage":        {"not-a-token", "invalid token"},
		"expired":        {expired, "token expired"},
		"wrong key":      {otherKey, "invalid token"},
		"wrong audience": {otherAudience, "invalid token"},
		"wrong issuer":   {otherIssuer, "invalid token"},
		"alg none":       {none, "invalid token"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := jwtService.ValidateToken(tt.token)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
			assert.EqualError(t, err, tt.msg)
		})
	}
}
