package service

import "errors"

var (
	ErrIncompleteDraft    = errors.New("booking draft is incomplete")
	ErrVehicleNotOwned    = errors.New("vehicle does not belong to user")
	ErrServiceUnavailable = errors.New("service is not available for booking")
	ErrInvalidStatus      = errors.New("invalid appointment status")
)
