package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifiedIdentityHasEmail(t *testing.T) {
	identity := &UnifiedIdentity{}
	assert.False(t, identity.HasEmail())

	empty := ""
	identity.PrimaryEmail = &empty
	assert.False(t, identity.HasEmail())

	email := "u@x.com"
	identity.PrimaryEmail = &email
	assert.True(t, identity.HasEmail())
}

func TestResolveInputValidate(t *testing.T) {
	assert.Error(t, ResolveInput{}.Validate())
	assert.NoError(t, ResolveInput{AnonymousID: "a1"}.Validate())
	assert.NoError(t, ResolveInput{CustomerID: "c1"}.Validate())
	assert.NoError(t, ResolveInput{Email: "u@x.com"}.Validate())
	assert.Error(t, ResolveInput{Email: "garbage"}.Validate())
}

func TestIdentityLinkValidate(t *testing.T) {
	link := &IdentityLink{
		WorkspaceID:   "ws1",
		UnifiedUserID: "uid1",
		IdentityType:  IdentityTypeEmail,
		IdentityValue: "u@x.com",
	}
	require.NoError(t, link.Validate())

	link.IdentityType = "fingerprint"
	assert.Error(t, link.Validate())

	link.IdentityType = IdentityTypeAnonymous
	link.IdentityValue = ""
	assert.Error(t, link.Validate())
}
