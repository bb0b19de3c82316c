//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or 404 (or even 204), whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap, DON'T fill it in, that code belonged to a removed error and must not be reused.
//
// ErrInvalidToken deliberately covers every token-state failure visible over
// HTTP (unknown, expired, consumed, wrong election): distinguishing them in
// responses would let a client probe token state faster than rate limits allow.
var (
	ErrResourceNotFound     = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody        = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedElectionID  = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed election ID")}
	ErrElectionNotFound     = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("election not found")}
	ErrInvalidElectionConf  = Error{Code: 40008, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid election configuration")}
	ErrNotEligible          = Error{Code: 40009, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("voter is not eligible")}
	ErrBallotClosed         = Error{Code: 40010, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("election is not open")}
	ErrTokenAlreadyIssued   = Error{Code: 40011, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("token already issued")}
	ErrInvalidToken         = Error{Code: 40012, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid or unusable token")}
	ErrInvalidChoice        = Error{Code: 40013, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("choice is not in the option set")}
	ErrNotYetRevealable     = Error{Code: 40014, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("results are not yet revealable")}
	ErrDuplicatePayloadHash = Error{Code: 40015, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("duplicate ballot payload, retry the cast")}
	ErrNotAuthorized        = Error{Code: 40016, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("not authorized")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)
