package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapp/api/internal/utils"
)

func TestJWTRoundTrip(t *testing.T) {
	id := utils.NewSixID()
	tok, err := GenerateJWT(id, "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateJWT(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestValidateJWT_Rejects(t *testing.T) {
	id := utils.NewSixID()

	tok, err := GenerateJWT(id, "secret", time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(tok, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateJWT(id, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired, "secret")
	assert.Error(t, err)

	_, err = ValidateJWT("not-a-token", "secret")
	assert.Error(t, err)
}
