package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewError(ErrNetwork, "", cause)

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "dial tcp: refused", err.Error())

	wrapped := fmt.Errorf("refresh: %w", err)
	assert.ErrorIs(t, wrapped, ErrNetwork)

	bare := NewError(ErrNoSession, "", nil)
	assert.Equal(t, ErrNoSession.Error(), bare.Error())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "지난 날짜는 예약할 수 없습니다.", Message(ErrPastDate))
	assert.Equal(t, "지난 날짜는 예약할 수 없습니다.", Message(fmt.Errorf("validate: %w", ErrPastDate)))
	assert.Equal(t, "이미 승인 상태입니다.", Message(NewError(ErrNoOpTransition, "이미 승인 상태입니다.", nil)))
	assert.Equal(t, "인증이 만료되었습니다. 다시 로그인해주세요.", Message(NewError(ErrAuthenticationExpired, "", nil)))
	assert.Equal(t, "알 수 없는 오류가 발생했습니다.", Message(errors.New("boom")))
}
