package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/instrument-catalog/internal/catalog/validation"
	"github.com/yungbote/instrument-catalog/internal/pkg/logger"
	"github.com/yungbote/instrument-catalog/internal/platform/apierr"
)

const MsgInternal = "An unexpected error occurred. Please try again later."

// Envelope is the shape of every API response body. Successful is true
// exactly when Errors is empty.
type Envelope struct {
	Successful bool     `json:"successful"`
	Errors     []string `json:"errors"`
	Data       any      `json:"data"`
}

func New(data any, errs []string) Envelope {
	if errs == nil {
		errs = []string{}
	}
	if data == nil {
		data = gin.H{}
	}
	return Envelope{Successful: len(errs) == 0, Errors: errs, Data: data}
}

func RespondOK(c *gin.Context, status int, data any) {
	c.JSON(status, New(data, nil))
}

func RespondErrors(c *gin.Context, status int, data any, errs ...string) {
	c.JSON(status, New(data, errs))
}

func AbortWithErrors(c *gin.Context, status int, data any, errs ...string) {
	c.AbortWithStatusJSON(status, New(data, errs))
}

// RespondError maps a service error to an envelope. Validation failures echo
// the normalized record (plus extra fields from data, e.g. the instrument id);
// anything unrecognized is logged and reported as a 500.
func RespondError(c *gin.Context, log *logger.Logger, err error, data gin.H) {
	var verr *validation.Error
	if errors.As(err, &verr) && verr.Result != nil {
		body := gin.H{}
		for k, v := range verr.Result.Record.Data() {
			body[k] = v
		}
		for k, v := range data {
			body[k] = v
		}
		RespondErrors(c, http.StatusBadRequest, body, verr.Result.Errors...)
		return
	}

	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 && ae.Status < 500 {
		msg := ae.Code
		if ae.Err != nil {
			msg = ae.Err.Error()
		}
		RespondErrors(c, ae.Status, toData(data), msg)
		return
	}

	if log != nil {
		log.Error("Request failed", "path", c.FullPath(), "method", c.Request.Method, "error", err)
	}
	status := apierr.StatusOf(err)
	RespondErrors(c, status, toData(data), MsgInternal)
}

func toData(data gin.H) any {
	if data == nil {
		return gin.H{}
	}
	return data
}
