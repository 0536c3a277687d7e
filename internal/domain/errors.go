package domain

import (
	"errors"

	"okhouse/internal/dates"
)

var (
	ErrInvalidDate           = dates.ErrInvalidDate
	ErrPastDate              = errors.New("date is in the past")
	ErrDurationOutOfRange    = errors.New("duration out of range")
	ErrNoOpTransition        = errors.New("status already set")
	ErrDecode                = errors.New("malformed token")
	ErrNoSession             = errors.New("no active session")
	ErrAuthenticationExpired = errors.New("authentication expired")
	ErrNetwork               = errors.New("network error")
	ErrServer                = errors.New("server error")
	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("dates already reserved")
)

// Error pairs a taxonomy kind with the message shown to the user.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// NewError builds an Error of the given kind. cause may be nil.
func NewError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

var kindMessages = []struct {
	kind error
	text string
}{
	{ErrInvalidDate, "날짜 형식이 올바르지 않습니다."},
	{ErrPastDate, "지난 날짜는 예약할 수 없습니다."},
	{ErrDurationOutOfRange, "숙박 기간은 1박 이상 30박 이하로 선택해주세요."},
	{ErrNoOpTransition, "이미 해당 상태입니다."},
	{ErrConflict, "선택하신 기간에 이미 예약이 있습니다."},
	{ErrDecode, "인증 정보가 올바르지 않습니다. 다시 로그인해주세요."},
	{ErrNoSession, "로그인이 필요합니다."},
	{ErrAuthenticationExpired, "인증이 만료되었습니다. 다시 로그인해주세요."},
	{ErrNetwork, "네트워크 연결을 확인해주세요."},
	{ErrServer, "서버에서 오류가 발생했습니다. 잠시 후 다시 시도해주세요."},
	{ErrValidation, "입력하신 정보를 다시 확인해주세요."},
}

// Message renders err for the UI. A *Error keeps its own message; bare
// taxonomy errors get the default text of their kind.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}

	for _, km := range kindMessages {
		if errors.Is(err, km.kind) {
			return km.text
		}
	}
	return "알 수 없는 오류가 발생했습니다."
}
