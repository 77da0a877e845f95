package services

import (
	"fmt"
	"net/http"
)

// StatusError is a service failure that knows its HTTP status.
type StatusError struct {
	Status int
	Msg    string
}

func (e *StatusError) Error() string { return e.Msg }

func newStatusError(status int, msg string) *StatusError {
	return &StatusError{Status: status, Msg: msg}
}

// invalid builds a 400 validation error.
func invalid(format string, args ...any) error {
	return newStatusError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// 404
var (
	ErrUserNotFound          = newStatusError(http.StatusNotFound, "user not found")
	ErrClanNotFound          = newStatusError(http.StatusNotFound, "clan not found")
	ErrMissionNotFound       = newStatusError(http.StatusNotFound, "mission not found")
	ErrRoundNotFound         = newStatusError(http.StatusNotFound, "round not found")
	ErrParticipationNotFound = newStatusError(http.StatusNotFound, "mission not started")
	ErrNotFollowing          = newStatusError(http.StatusNotFound, "not following this clan")
	ErrRewardNotFound        = newStatusError(http.StatusNotFound, "reward not found")
	ErrBadgeNotFound         = newStatusError(http.StatusNotFound, "badge not found")
	ErrCertificateNotFound   = newStatusError(http.StatusNotFound, "certificate not found")
)

// 409
var (
	ErrClanNameTaken      = newStatusError(http.StatusConflict, "clan name already taken")
	ErrAlreadyFollowing   = newStatusError(http.StatusConflict, "already following this clan")
	ErrAlreadyStarted     = newStatusError(http.StatusConflict, "mission already started")
	ErrRoundAlreadyPassed = newStatusError(http.StatusConflict, "round already completed")
	ErrRewardClaimed      = newStatusError(http.StatusConflict, "reward already claimed")
	ErrBadgeMinted        = newStatusError(http.StatusConflict, "badge already minted")
	ErrCertificateExists  = newStatusError(http.StatusConflict, "certificate already issued")
)

// 400 / 403
var (
	ErrForbidden           = newStatusError(http.StatusForbidden, "only the creator can do this")
	ErrInvalidRefreshToken = newStatusError(http.StatusBadRequest, "invalid refresh token")
	ErrRefreshTokenExpired = newStatusError(http.StatusBadRequest, "refresh token expired")
	ErrInvalidAddress      = newStatusError(http.StatusBadRequest, "invalid wallet address")
	ErrMissionNotPublished = newStatusError(http.StatusBadRequest, "mission is not published")
	ErrMissionIncomplete   = newStatusError(http.StatusBadRequest, "mission not completed")
)

// 502: upstream collaborators
var (
	ErrChain   = newStatusError(http.StatusBadGateway, "sui")
	ErrStorage = newStatusError(http.StatusBadGateway, "storage")
)

// chainError prefixes a chain client failure, keeping the cause readable.
func chainError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrChain, op, err)
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
