// Package http is the gateway transport: a GET-only router seam over chi, the
// server lifecycle and the JSON envelope every handler answers with
package http

import (
	"encoding/json"
	stdhttp "net/http"

	"cardanoidx/internal/platform/logger"
	pnet "cardanoidx/internal/platform/net"
	"cardanoidx/internal/platform/net/http/bind"
)

// Envelope is the response body of every endpoint
type Envelope = pnet.Wire

// Read adapts a read handler: its result is the data of a 200 envelope and
// its error picks the status and error envelope
func Read(fn func(*stdhttp.Request) (any, error)) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		out, err := fn(r)
		Respond(w, r, out, err)
	}
}

// Query binds the URL query string into T before calling fn; a bind
// failure answers 400 without calling fn
func Query[T any](fn func(*stdhttp.Request, T) (any, error)) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		in, err := bind.ParseQuery[T](r)
		if err != nil {
			Respond(w, r, nil, err)
			return
		}
		out, err := fn(r, in)
		Respond(w, r, out, err)
	}
}

// Respond writes data, or err when non nil, as a JSON envelope stamped with the request id
func Respond(w stdhttp.ResponseWriter, r *stdhttp.Request, data any, err error) {
	reqID := pnet.RequestID(r.Context())
	status, body := pnet.Success(data, reqID)
	if err != nil {
		status, body = pnet.Failure(err, reqID)
		if status >= stdhttp.StatusInternalServerError {
			logger.C(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.C(r.Context()).Warn().Err(err).Msg("write response")
	}
}
