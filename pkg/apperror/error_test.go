package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("syncing account: %w", ErrBankSessionExpired)
	assert.Equal(t, External, KindOf(err))
	assert.True(t, errors.Is(err, ErrBankSessionExpired))

	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, Validation, KindOf(Newf(Validation, "missing column %s", "date")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(Persistence, nil, "ignored"))

	cause := errors.New("duplicate key value violates unique constraint")
	err := Wrap(Persistence, cause, "failed to save transaction")
	assert.Equal(t, Persistence, KindOf(err))
	assert.Equal(t, "failed to save transaction", Message(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "unique constraint")
}
