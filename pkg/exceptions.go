package pkg

import (
	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
)

var (
	// Security errors 🔒
	ErrChecksumMismatch = apperrors.ErrChecksumMismatch
	ErrSignatureInvalid = apperrors.ErrSignatureInvalid
	ErrNoSeal           = apperrors.ErrNoSeal
)
