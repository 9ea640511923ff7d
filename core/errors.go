package core

import "errors"

var (
	ErrInvalidIdentity     = errors.New("invalid identity")
	ErrVerificationFailed  = errors.New("signature verification failed")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrExpiredCredential   = errors.New("credential has expired")
	ErrIssuance            = errors.New("credential issuance failed")
	ErrUserNotFound        = errors.New("user not found")
)
