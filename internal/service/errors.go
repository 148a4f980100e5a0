package service

import "errors"

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")              // 401
	ErrUnauthorized           = errors.New("unauthorized")                     // 401
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired token")         // 401
	ErrForbidden              = errors.New("forbidden")                        // 403
	ErrTokenOwnershipMismatch = errors.New("token does not belong to caller") // 403
	ErrNotFound               = errors.New("not found")                        // 404
	ErrValidation             = errors.New("validation")                       // 400
	ErrIncorrectPassword      = errors.New("incorrect password")               // 400
	ErrConflict               = errors.New("conflict")                         // 409
)
