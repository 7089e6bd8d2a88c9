package itemsapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/shoplist/api/transport"
	"github.com/fastygo/shoplist/domain"
)

// StatusError is a non-success response from the server.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("itemsapi: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("itemsapi: %d %s", e.Status, e.Message)
}

// decodeError classifies the response as a domain error so callers can use
// domain.IsDomainError regardless of transport.
func decodeError(resp *fasthttp.Response) error {
	statusErr := &StatusError{Status: resp.StatusCode()}
	var env transport.Envelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil {
		statusErr.Code = env.Code
		statusErr.Message = env.Message()
	}

	code := domain.ErrCodeInternal
	switch statusErr.Status {
	case http.StatusNotFound:
		code = domain.ErrCodeNotFound
	case http.StatusBadRequest:
		code = domain.ErrCodeInvalid
	case http.StatusConflict:
		code = domain.ErrCodeConflict
	case http.StatusTooManyRequests:
		code = domain.ErrCodeTooMany
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		code = domain.ErrCodeUnavailable
	}
	return domain.WrapError(code, "remote request failed", statusErr)
}
