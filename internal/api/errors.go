package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"okhouse/internal/domain"
)

// StatusError is a non-2xx reply from the backend.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("http %d", e.Status)
}

var statusMessages = map[int]string{
	http.StatusUnauthorized: "인증에 실패했습니다. 정보를 다시 확인해주세요.",
	http.StatusForbidden:    "접근 권한이 없습니다.",
	http.StatusNotFound:     "요청하신 정보를 찾을 수 없습니다.",
}

// kindForStatus maps a failed status code onto the error taxonomy.
func kindForStatus(status int) error {
	if status >= 500 {
		return domain.ErrServer
	}
	return domain.ErrValidation
}

// statusError builds the error returned for a failed reply. The backend's
// own message wins over the generic text for the status.
func statusError(status int, body []byte) error {
	detail := extractMessage(body)
	message := detail
	if message == "" {
		message = statusMessages[status]
	}
	return domain.NewError(kindForStatus(status), message, &StatusError{Status: status, Detail: detail})
}

// extractMessage pulls a human-readable message from an error body. It
// understands {"detail": "..."}, validation lists of {"msg": "..."} and
// {"error"|"message": "..."}.
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			for _, item := range items {
				if item.Msg != "" {
					return item.Msg
				}
			}
		}
	}
	return ""
}
