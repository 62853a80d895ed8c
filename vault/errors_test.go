package vault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchError(t *testing.T) {
	assert.Nil(t, MatchError(nil))

	local := fmt.Errorf("%w: caller is not the owner", ErrUnauthorized)
	assert.Same(t, local, MatchError(local))

	remote := errors.New("failed to estimate gas needed: execution reverted: vault: payment not yet due: payment 0 due at 10, now 5")
	matched := MatchError(remote)
	assert.ErrorIs(t, matched, ErrNotYetDue)
	assert.Equal(t, remote.Error(), matched.Error())

	assert.True(t, IsVaultError(matched))
	assert.True(t, IsVaultError(local))

	other := errors.New("connection refused")
	assert.False(t, IsVaultError(other))
	assert.False(t, IsVaultError(nil))
	assert.Same(t, other, MatchError(other))
	for _, s := range sentinels {
		assert.NotErrorIs(t, MatchError(other), s)
	}
}
