package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifiersSeeThroughWrapping(t *testing.T) {
	nf := fmt.Errorf("loading item: %w", NotFound("item", "ABC"))
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsConflict(nf, ""))
	assert.Equal(t, "loading item: item ABC not found", nf.Error())

	c := fmt.Errorf("propose: %w", Conflict(CodeTransactionExists, "already exists", nil))
	assert.True(t, IsConflict(c, ""))
	assert.True(t, IsConflict(c, CodeTransactionExists))
	assert.False(t, IsConflict(c, CodeItemsUnavailable))

	v := Validation("latitude", "must be between %d and %d", -90, 90)
	assert.True(t, IsValidation(v))
	assert.Equal(t, "latitude: must be between -90 and 90", v.Error())
}

func TestUpstreamUnwraps(t *testing.T) {
	base := errors.New("connection refused")
	err := Upstream("recommender", base)
	assert.True(t, IsUpstream(err))
	assert.ErrorIs(t, err, base)
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFoundMessage("item", "You have yet to add your very first item.")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "You have yet to add your very first item.", err.Error())
}
