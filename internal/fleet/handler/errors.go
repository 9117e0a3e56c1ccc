package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func errorCode(err error) codes.Code {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, apperror.ErrInvalidQuantity),
		errors.Is(err, apperror.ErrInvalidIdentifier),
		errors.Is(err, apperror.ErrInvalidDestination),
		errors.Is(err, apperror.ErrInvalidArgument):
		return codes.InvalidArgument
	case errors.Is(err, apperror.ErrStockInsufficient),
		errors.Is(err, apperror.ErrNoAssignment),
		errors.Is(err, apperror.ErrRobotBusy):
		return codes.FailedPrecondition
	case errors.Is(err, apperror.ErrStoreUnavailable):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(errorCode(err), err.Error())
}

func httpStatus(err error) int {
	switch errorCode(err) {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
