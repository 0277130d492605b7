package rpc

import "errors"

var (
	// ErrMalformedResponse is returned when a response is not valid JSON-RPC.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrShortResult is returned when the result array has fewer fields than expected.
	ErrShortResult = errors.New("result has too few fields")

	// ErrEmptyResponse is returned when the peer closed the connection without sending data.
	ErrEmptyResponse = errors.New("empty response")

	// ErrRemote is returned when the rig answers with a JSON-RPC error object.
	ErrRemote = errors.New("rig returned an error")
)
