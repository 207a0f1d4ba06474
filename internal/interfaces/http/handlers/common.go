package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/keyip-smiles/internal/interfaces/http/middleware"
	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeAppError maps err to its HTTP status and writes an ErrorResponse.
// Messages of 500 responses are masked.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	resp := ErrorResponse{Code: code.String(), RequestID: middleware.GetRequestID(c)}

	var ae *errors.AppError
	switch {
	case status == http.StatusInternalServerError:
		resp.Message = errors.DefaultMessageForCode(errors.CodeInternal)
		if code == errors.CodeUnknown {
			resp.Code = errors.CodeInternal.String()
		}
	case stderrors.As(err, &ae):
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	default:
		resp.Message = err.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// bindJSON decodes the request body into dst.  Oversized bodies map to
// SMI_011, everything else to COMMON_002.
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeAppError(c, errors.Newf(errors.CodeInputTooLarge, "request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	writeAppError(c, errors.InvalidParam("invalid request body").WithDetail(err.Error()))
	return false
}
