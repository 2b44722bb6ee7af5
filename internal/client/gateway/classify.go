package gateway

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
)

// errorBody is the structured error contract: {errorCode, message}. The
// snake_case and NestJS-style variants seen during the backend migration are
// accepted too.
type errorBody struct {
	ErrorCode      string     `json:"errorCode"`
	ErrorCodeSnake string     `json:"error_code"`
	Code           flexString `json:"code"`
	Message        flexText   `json:"message"`
	Error          flexText   `json:"error"`
}

func (b errorBody) code() string {
	for _, c := range []string{b.ErrorCode, b.ErrorCodeSnake, string(b.Code)} {
		if c != "" {
			return strings.ToUpper(strings.TrimSpace(c))
		}
	}
	return ""
}

func (b errorBody) message() string {
	if b.Message != "" {
		return string(b.Message)
	}
	return string(b.Error)
}

func parseErrorBody(raw []byte) (code, message string) {
	var b errorBody
	if err := json.Unmarshal(raw, &b); err != nil {
		return "", strings.TrimSpace(string(raw))
	}
	return b.code(), b.message()
}

// errorForCode maps the backend error code contract onto the sentinels.
// Unrecognised codes return nil so the caller can fall back.
func errorForCode(code string) error {
	switch code {
	case "INVALID_CREDENTIALS", "WRONG_PASSWORD":
		return ErrInvalidCredentials
	case "ACCOUNT_NOT_FOUND", "USER_NOT_FOUND":
		return ErrAccountNotFound
	case "INVALID_CODE", "CODE_EXPIRED", "INVALID_OR_EXPIRED_CODE":
		return ErrInvalidOrExpiredCode
	case "REGISTRATION_NOT_FOUND":
		return ErrRegistrationNotFound
	case "EMAIL_NOT_REGISTERED":
		return ErrEmailNotRegistered
	case "EMAIL_ALREADY_REGISTERED", "EMAIL_TAKEN":
		return ErrEmailTaken
	case "RATE_LIMITED", "TOO_MANY_REQUESTS":
		return ErrRateLimited
	case "INVALID_TOKEN", "TOKEN_EXPIRED", "INVALID_OR_EXPIRED_TOKEN":
		return ErrInvalidOrExpiredToken
	case "VALIDATION_ERROR", "INVALID_INPUT":
		return ErrValidation
	default:
		return nil
	}
}

// rule is one line of the legacy classification used for bodies without an
// error code: phrases are matched in the lowercased message first, statuses
// only when no phrase matched.
type rule struct {
	err      error
	phrases  []string
	statuses []int
}

var legacyRules = map[string][]rule{
	opRegister: {
		{err: ErrEmailTaken, phrases: []string{"already registered", "already exists", "already in use"}, statuses: []int{http.StatusConflict}},
		{err: ErrValidation, statuses: []int{http.StatusBadRequest, http.StatusUnprocessableEntity}},
	},
	opLogin: {
		{err: ErrAccountNotFound, phrases: []string{"not found", "no account", "does not exist"}, statuses: []int{http.StatusNotFound}},
		{err: ErrInvalidCredentials, phrases: []string{"invalid", "incorrect", "wrong password"}, statuses: []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest}},
	},
	opVerify: {
		{err: ErrRegistrationNotFound, phrases: []string{"not found", "no pending"}, statuses: []int{http.StatusNotFound}},
		{err: ErrInvalidOrExpiredCode, phrases: []string{"expired", "invalid", "incorrect"}, statuses: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusGone}},
	},
	opResend: {
		{err: ErrRateLimited, phrases: []string{"too many", "please wait", "rate limit"}},
		{err: ErrRegistrationNotFound, phrases: []string{"registration not found", "no pending"}},
		{err: ErrEmailNotRegistered, phrases: []string{"not found", "not registered"}, statuses: []int{http.StatusNotFound}},
	},
	opResetPassword: {
		{err: ErrInvalidOrExpiredToken, phrases: []string{"expired", "invalid"}, statuses: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusGone}},
	},
}

func classifyLegacy(op string, status int, message string) error {
	rules := legacyRules[op]
	lower := strings.ToLower(message)

	for _, r := range rules {
		for _, p := range r.phrases {
			if strings.Contains(lower, p) {
				return r.err
			}
		}
	}
	for _, r := range rules {
		if slices.Contains(r.statuses, status) {
			return r.err
		}
	}
	return nil
}

// classify turns a non-2xx response into an *APIError.
func classify(op string, status int, raw []byte) *APIError {
	code, message := parseErrorBody(raw)
	apiErr := &APIError{Op: op, Status: status, Code: code, Message: message}

	switch {
	case status >= http.StatusInternalServerError:
		apiErr.Err = ErrNetwork
	case status == http.StatusTooManyRequests:
		apiErr.Err = ErrRateLimited
	default:
		if err := errorForCode(code); err != nil {
			apiErr.Err = err
		} else if err := classifyLegacy(op, status, message); err != nil {
			apiErr.Err = err
		} else {
			apiErr.Err = ErrUnknown
		}
	}
	return apiErr
}
