package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/room-reservation/core"
	"github.com/sksmith/room-reservation/core/inventory"
	"github.com/sksmith/room-reservation/core/reservation"
	"github.com/sksmith/room-reservation/core/user"
)

//--
// Error response payloads & renderers
//--

// ErrResponse renderer type for handling all sorts of errors.
//
// Err carries the low-level error for logging, ErrorText the reason the
// client is allowed to see.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	AppCode    int64  `json:"code,omitempty"`  // application-specific error code
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
}

func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrConflict(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusConflict,
		StatusText:     "Conflict.",
		ErrorText:      err.Error(),
	}
}

// ErrUnprocessable is an internal error whose reason is still worth showing,
// like a unit without a price.
func ErrUnprocessable(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}

func ErrNotFound(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusNotFound,
		StatusText:     "Resource not found.",
		ErrorText:      err.Error(),
	}
}

func ErrForbidden(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusForbidden,
		StatusText:     "Forbidden.",
		ErrorText:      err.Error(),
	}
}

var ErrInternalServer = &ErrResponse{
	Err:            nil,
	HTTPStatusCode: http.StatusInternalServerError,
	StatusText:     "Internal server error.",
	ErrorText:      "An internal server error has occurred.",
}

// RenderErr translates an error returned by a service into its response.
func RenderErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		Render(w, r, ErrNotFound(err))
	case errors.Is(err, reservation.ErrForbidden):
		Render(w, r, ErrForbidden(err))
	case errors.Is(err, reservation.ErrDateRangeConflict),
		errors.Is(err, inventory.ErrInsufficientCapacity),
		errors.Is(err, reservation.ErrInvalidStatusTransition),
		errors.Is(err, reservation.ErrCancellationWindowClosed):
		Render(w, r, ErrConflict(err))
	case errors.Is(err, reservation.ErrInvalidRequest),
		errors.Is(err, inventory.ErrInvalidInventory),
		errors.Is(err, inventory.ErrInvalidRange),
		errors.Is(err, user.ErrInvalidUser):
		Render(w, r, ErrInvalidRequest(err))
	case errors.Is(err, reservation.ErrNoPriceConfigured),
		errors.Is(err, reservation.ErrNoContactMethod):
		log.Error().Err(err).Str("uri", r.RequestURI).Msg("request could not be completed")
		Render(w, r, ErrUnprocessable(err))
	default:
		log.Error().Stack().Err(err).Str("uri", r.RequestURI).Msg("unexpected error")
		Render(w, r, ErrInternalServer)
	}
}

func Render(w http.ResponseWriter, r *http.Request, rnd render.Renderer) {
	if err := render.Render(w, r, rnd); err != nil {
		log.Warn().Err(err).Msg("failed to render")
	}
}

func RenderList(w http.ResponseWriter, r *http.Request, l []render.Renderer) {
	if err := render.RenderList(w, r, l); err != nil {
		log.Warn().Err(err).Msg("failed to render")
	}
}
