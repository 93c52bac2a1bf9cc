package auth

import "errors"

var errNoVerifier = errors.New("identity verifier not configured")
