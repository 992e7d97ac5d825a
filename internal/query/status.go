package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const statusLinePrefix = "error "

// ErrEmptyResponse is returned when a response carries no status line at all.
var ErrEmptyResponse = errors.New("empty response: no status line")

// Error is a nonzero protocol status decoded from a response.
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("query error %d: %s", e.Code, e.Msg)
}

// decodeStatus scans a raw response for its status line. On code 0 it
// returns the response body with the status line stripped; on any other
// code it returns a *Error carrying the code and message.
func decodeStatus(raw string) (string, error) {
	for _, line := range strings.Split(raw, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), statusLinePrefix) {
			continue
		}
		code, msg, err := parseStatusLine(strings.TrimSpace(line))
		if err != nil {
			return "", err
		}
		if code != 0 {
			return "", &Error{Code: code, Msg: msg}
		}
		body := strings.Replace(raw, line, "", 1)
		return strings.Trim(body, "\r\n"), nil
	}
	return "", ErrEmptyResponse
}

func parseStatusLine(line string) (int, string, error) {
	var (
		code    = -1
		message string
	)
	for _, field := range strings.Fields(strings.TrimPrefix(line, statusLinePrefix)) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "id":
			n, err := strconv.Atoi(value)
			if err != nil {
				return 0, "", fmt.Errorf("parse status code %q: %w", value, err)
			}
			code = n
		case "msg":
			message = Unescape(value)
		}
	}
	if code < 0 {
		return 0, "", fmt.Errorf("status line %q has no id field", line)
	}
	return code, message, nil
}
