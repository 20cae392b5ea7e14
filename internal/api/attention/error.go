package attention

import (
	"FocusGolang/pkg/response"
	"net/http"
)

var (
	ErrMalformedFrame      = response.NewError(http.StatusBadRequest, "malformed frame")
	ErrUnknownSession      = response.NewError(http.StatusNotFound, "unknown session")
	ErrSessionEnded        = response.NewError(http.StatusGone, "session ended")
	ErrFrameDropped        = response.NewError(http.StatusTooManyRequests, "frame dropped under backpressure")
	ErrOutOfOrderFrame     = response.NewError(http.StatusConflict, "frame capture timestamp not after previous frame")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
	ErrBadRequest          = response.NewError(http.StatusBadRequest, "bad request")
)
