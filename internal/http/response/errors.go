package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/platform/apierr"
)

var errInternal = errors.New("internal error")

// Classify maps an error from the core to its HTTP status and code.
func Classify(err error) *apierr.Error {
	var ae *apierr.Error
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, decision.ErrValidation):
		return apierr.New(http.StatusBadRequest, apierr.CodeValidation, err)
	case errors.Is(err, decision.ErrNotFound):
		return apierr.New(http.StatusNotFound, apierr.CodeNotFound, err)
	case errors.Is(err, decision.ErrAlreadySuperseded):
		return apierr.New(http.StatusConflict, apierr.CodeAlreadySuperseded, err)
	case errors.Is(err, decision.ErrUnsupportedOperation):
		return apierr.New(http.StatusBadRequest, apierr.CodeUnsupportedOperation, err)
	default:
		// Driver messages stay in the logs.
		return apierr.New(http.StatusInternalServerError, apierr.CodeStorageFailure, errInternal)
	}
}

func RespondErr(c *gin.Context, err error) {
	ae := Classify(err)
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}
