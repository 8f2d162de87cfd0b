// Package webhook implements the pure pieces of the inbound webhook flow:
// the subscription handshake check and the notification payload parser.
package webhook

import "errors"

var (
	// ErrBadRequest means the handshake query was missing required params.
	ErrBadRequest = errors.New("missing hub.mode or hub.verify_token")
	// ErrForbidden means the handshake params were present but did not match.
	ErrForbidden = errors.New("verification token mismatch")
)

// VerifyChallenge implements the subscription handshake. On success it
// returns the challenge to be echoed back verbatim; the challenge may be
// empty, only mode and token decide the outcome.
func VerifyChallenge(mode, token, challenge, expectedToken string) (string, error) {
	if mode == "" || token == "" {
		return "", ErrBadRequest
	}
	if mode == "subscribe" && token == expectedToken {
		return challenge, nil
	}
	return "", ErrForbidden
}
