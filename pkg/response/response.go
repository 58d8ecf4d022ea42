package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/bmi-tracker/pkg/validation"
)

// MessageBody is the shape of every plain success/failure message.
type MessageBody struct {
	Message string `json:"message"`
}

// ValidationBody is the 400 body for rejected input.
type ValidationBody struct {
	Errors validation.Errors `json:"errors"`
}

// JSON writes body with status and echoes the request id header.
func JSON(c *gin.Context, status int, body any) {
	if status == 0 {
		status = http.StatusOK
	}
	if rid := c.GetString("request_id"); rid != "" {
		c.Header("X-Request-ID", rid)
	}
	c.JSON(status, body)
}

// Message writes {"message": msg}.
func Message(c *gin.Context, status int, msg string) {
	JSON(c, status, MessageBody{Message: msg})
}

// Abort writes {"message": msg} and stops the handler chain.
func Abort(c *gin.Context, status int, msg string) {
	Message(c, status, msg)
	c.Abort()
}

// Invalid writes a 400 with the structured validation errors.
func Invalid(c *gin.Context, errs validation.Errors) {
	JSON(c, http.StatusBadRequest, ValidationBody{Errors: errs})
}

// ServerError writes a generic 500. Callers log the cause; it never reaches
// the client.
func ServerError(c *gin.Context) {
	Message(c, http.StatusInternalServerError, "Server error")
}
