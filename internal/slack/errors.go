package slack

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure classes the Slack client reports.
// Every error returned by Client.PostMessage maps to exactly one kind via
// KindOf.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindRateLimited
	KindServerError
	KindInvalidAuth
	KindNotAuthed
	KindTokenRevoked
	KindAccountInactive
	KindChannelNotFound
	KindChannelArchived
	KindNotInChannel
	KindMissingScope
)

var kindNames = map[ErrorKind]string{
	KindUnknown:         "unknown",
	KindRateLimited:     "rate_limited",
	KindServerError:     "server_error",
	KindInvalidAuth:     "invalid_auth",
	KindNotAuthed:       "not_authed",
	KindTokenRevoked:    "token_revoked",
	KindAccountInactive: "account_inactive",
	KindChannelNotFound: "channel_not_found",
	KindChannelArchived: "is_archived",
	KindNotInChannel:    "not_in_channel",
	KindMissingScope:    "missing_scope",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Permanent reports whether the integration behind this kind of failure
// is gone for good: the app was uninstalled, the token revoked, or the
// channel can no longer be posted to.
func (k ErrorKind) Permanent() bool {
	switch k {
	case KindInvalidAuth, KindNotAuthed, KindTokenRevoked, KindAccountInactive,
		KindChannelNotFound, KindChannelArchived, KindNotInChannel, KindMissingScope:
		return true
	default:
		return false
	}
}

// kindFromCode maps the "error" field of a Slack Web API response.
func kindFromCode(code string) ErrorKind {
	switch code {
	case "ratelimited", "rate_limited":
		return KindRateLimited
	case "internal_error", "fatal_error", "service_unavailable", "request_timeout":
		return KindServerError
	case "invalid_auth":
		return KindInvalidAuth
	case "not_authed":
		return KindNotAuthed
	case "token_revoked", "token_expired":
		return KindTokenRevoked
	case "account_inactive":
		return KindAccountInactive
	case "channel_not_found":
		return KindChannelNotFound
	case "is_archived":
		return KindChannelArchived
	case "not_in_channel":
		return KindNotInChannel
	case "missing_scope":
		return KindMissingScope
	default:
		return KindUnknown
	}
}

// APIError is a failed Slack Web API call.
type APIError struct {
	Method     string
	StatusCode int
	Code       string
	Kind       ErrorKind
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("slack %s failed: %s", e.Method, e.Code)
	}
	return fmt.Sprintf("slack %s failed: status %d", e.Method, e.StatusCode)
}

// KindOf returns the kind of a Slack failure. Errors that did not come
// from the Slack API (network failures, context cancellation) are
// KindUnknown.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsPermanent is shorthand for KindOf(err).Permanent().
func IsPermanent(err error) bool {
	return KindOf(err).Permanent()
}
