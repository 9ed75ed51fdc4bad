package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/newsboy-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type Message struct {
	Message string `json:"message"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError uses the status and code carried by an apierr.Error. Any
// other error becomes a 500 whose message does not leak internals. It
// reports whether err was an internal error so the caller can log it.
func RespondAPIError(c *gin.Context, err error) (internal bool) {
	if ae, ok := apierr.As(err); ok {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		RespondError(c, status, ae.Code, ae)
		return status >= http.StatusInternalServerError
	}
	c.JSON(http.StatusInternalServerError, ErrorEnvelope{
		Error: APIError{Message: "internal server error", Code: "internal_error"},
	})
	return true
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondAccepted(c *gin.Context, msg string) {
	c.JSON(http.StatusAccepted, Message{Message: msg})
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
