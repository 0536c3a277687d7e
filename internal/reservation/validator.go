// Package reservation validates booking requests and admin status changes.
package reservation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"okhouse/internal/dates"
	"okhouse/internal/domain"
	"okhouse/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	nonDigits = regexp.MustCompile(`[^0-9]`)
	pinDigits = regexp.MustCompile(`^[0-9]{4}$`)
)

// Validator checks guest input against the property's booking rules.
type Validator struct {
	minNights int
	maxNights int
	validate  *validator.Validate
}

// NewValidator builds a validator for stays of [minNights, maxNights].
// Non-positive bounds fall back to the defaults.
func NewValidator(minNights, maxNights int) *Validator {
	if minNights <= 0 {
		minNights = models.DefaultMinNights
	}
	if maxNights <= 0 {
		maxNights = models.DefaultMaxNights
	}

	v := validator.New()
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "pin4", func(fl validator.FieldLevel) bool {
		return pinDigits.MatchString(fl.Field().String())
	})
	mustRegister(v, "krmobile", func(fl validator.FieldLevel) bool {
		digits := NormalizePhone(fl.Field().String())
		return len(digits) == 11 && strings.HasPrefix(digits, "010")
	})

	return &Validator{minNights: minNights, maxNights: maxNights, validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ValidateDateRange rejects check-ins before today and stays outside the
// allowed number of nights.
func (v *Validator) ValidateDateRange(start time.Time, nights int, now time.Time) error {
	if start.IsZero() {
		return domain.ErrInvalidDate
	}
	if dates.Before(start, now) {
		return domain.ErrPastDate
	}
	if nights < v.minNights || nights > v.maxNights {
		return domain.NewError(domain.ErrDurationOutOfRange,
			fmt.Sprintf("숙박 기간은 %d박 이상 %d박 이하로 선택해주세요.", v.minNights, v.maxNights), nil)
	}
	return nil
}

// ValidateGuestInfo checks the guest's name, phone and 4-digit password.
// The first failing rule wins.
func (v *Validator) ValidateGuestInfo(name, phone, password string) error {
	checks := []struct {
		value   string
		tag     string
		message string
	}{
		{name, "notblank", "이름을 입력해주세요."},
		{phone, "notblank", "전화번호를 입력해주세요."},
		{password, "notblank", "비밀번호를 입력해주세요."},
		{password, "pin4", "비밀번호는 4자리 숫자여야 합니다."},
		{phone, "krmobile", "전화번호는 010으로 시작하는 11자리 숫자여야 합니다."},
	}
	for _, c := range checks {
		if err := v.validate.Var(c.value, c.tag); err != nil {
			return domain.NewError(domain.ErrValidation, c.message, nil)
		}
	}
	return nil
}

var statusNames = map[models.Status]string{
	models.StatusConfirmed: "승인",
	models.StatusPending:   "대기",
	models.StatusCancelled: "거절",
}

// ValidateStatusTransition only rejects no-ops and statuses an admin cannot
// set. Any move among pending, confirmed and cancelled is allowed.
func ValidateStatusTransition(current, requested models.Status) error {
	if !requested.Settable() {
		return domain.NewError(domain.ErrValidation,
			fmt.Sprintf("변경할 수 없는 상태입니다: %s", requested), nil)
	}
	if current == requested {
		return domain.NewError(domain.ErrNoOpTransition,
			fmt.Sprintf("이미 %s 상태입니다.", statusNames[requested]), nil)
	}
	return nil
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}
