package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/pdf-ocr-service/api/model"
	"github.com/fyerfyer/pdf-ocr-service/internal/models"
)

// ErrorMiddleware recovers from panics and returns a uniform error body.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())

				log.WithFields(logrus.Fields{
					"error": err,
					"stack": stack,
					"path":  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				c.AbortWithStatusJSON(
					http.StatusInternalServerError,
					model.NewErrorResponse("internal server error"),
				)
			}
		}()

		c.Next()
	}
}

// StatusFromError maps recognition errors to HTTP status codes.
// Validation problems are the client's fault; everything else is ours.
func StatusFromError(err error) int {
	switch {
	case models.IsValidationError(err):
		return http.StatusBadRequest
	case models.IsFetchError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the uniform error body for err.
func RespondError(c *gin.Context, err error) {
	c.JSON(StatusFromError(err), model.NewErrorResponse(err.Error()))
}
