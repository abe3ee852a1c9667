package mockapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jetdesk/jetadmin/internal/domain"
)

// envelope is the response shape of every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Total   *int64 `json:"total,omitempty"`
}

func reply(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// fail maps err to a status and a failure envelope. Validation errors from
// ozzo become 400 with their field messages.
func fail(c *gin.Context, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, envelope{Message: verrs.Error()})
		return
	}
	status := domain.HTTPStatusCode(err)
	msg := "internal error"
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	c.JSON(status, envelope{Message: msg})
}

func invalid(msg string) error {
	return domain.NewAppError(domain.CodeValidation, msg, nil)
}
