package rpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/rfvision/core"
	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/kb"
	"github.com/signalsfoundry/rfvision/model"
)

// ToStatusError maps calculator and catalog errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, kb.ErrTransceiverNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, model.ErrInvalidParameter),
		errors.Is(err, codec.ErrUnsupportedCharacter),
		errors.Is(err, codec.ErrInvalidBits),
		errors.Is(err, kb.ErrInvalidTransceiver),
		errors.Is(err, core.ErrBadDistance),
		errors.Is(err, core.ErrBadConversion):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, core.ErrIncompatibleBands):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, kb.ErrTransceiverExists):
		return status.Error(codes.AlreadyExists, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
