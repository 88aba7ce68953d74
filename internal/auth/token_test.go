package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, exp, err := tm.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	userID, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenManager_Expiry(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	tm := NewTokenManager("test-secret", time.Hour).WithClock(func() time.Time { return now })

	token, _, err := tm.Issue(7)
	require.NoError(t, err)

	now = issued.Add(59 * time.Minute)
	userID, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)

	now = issued.Add(61 * time.Minute)
	_, err = tm.Verify(token)
	require.Error(t, err)
	assert.True(t, util.HasCode(err, util.CodeTokenExpired))
}

func TestTokenManager_RejectsTamperedToken(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, _, err := tm.Issue(1)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = tm.Verify(tampered)
	require.Error(t, err)
	assert.True(t, util.HasCode(err, util.CodeTokenInvalid))
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, _, err := issuer.Issue(1)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.True(t, util.HasCode(err, util.CodeTokenInvalid))
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, err := tm.Verify("not.a.jwt")
	require.Error(t, err)
	assert.True(t, util.HasCode(err, util.CodeTokenInvalid))
}
