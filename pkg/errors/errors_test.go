package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrDuplicateAccount:      http.StatusConflict,
		ErrInvalidProfile:        http.StatusBadRequest,
		ErrInvalidBloodGroup:     http.StatusBadRequest,
		ErrCodeExpired:           http.StatusBadRequest,
		ErrCodeMismatch:          http.StatusBadRequest,
		ErrNoPendingVerification: http.StatusBadRequest,
		ErrInvalidCredential:     http.StatusUnauthorized,
		ErrNotVerified:           http.StatusForbidden,
		ErrAccountInactive:       http.StatusForbidden,
		ErrForbidden:             http.StatusForbidden,
		ErrInvalidTransition:     http.StatusConflict,
		ErrAlreadyFinalized:      http.StatusConflict,
		ErrNotFound:              http.StatusNotFound,
		ErrTooManyRequests:       http.StatusTooManyRequests,
		ErrInternal:              http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, New(code, "msg").HTTPStatus(), "code %s", code)
	}
}

func TestCodeExtraction(t *testing.T) {
	err := New(ErrForbidden, "nope")
	assert.Equal(t, ErrForbidden, Code(err))
	assert.True(t, Is(err, ErrForbidden))
	assert.False(t, Is(err, ErrNotFound))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, ErrForbidden, Code(wrapped))

	assert.Equal(t, ErrInternal, Code(stderrors.New("plain")))
	assert.Equal(t, ErrInternal, Code(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrInternal, "query failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "query failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, ErrNotFound, NotFound("account").Code)
	assert.Contains(t, NotFound("account").Message, "account")

	transition := InvalidTransition("pending", "completed")
	assert.Equal(t, ErrInvalidTransition, transition.Code)
	assert.Contains(t, transition.Message, "pending")
	assert.Contains(t, transition.Message, "completed")

	finalized := AlreadyFinalized("cancelled")
	assert.Equal(t, ErrAlreadyFinalized, finalized.Code)
	assert.Contains(t, finalized.Message, "cancelled")
}
