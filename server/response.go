package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/logger"
)

// RespondWithError renders err as the {"error": {...}} envelope. Errors that
// are not *errors.AppError become a generic 500. Server-side failures are
// logged with their cause.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		fields := map[string]interface{}{
			"code": string(appErr.Code),
			"path": c.Request.URL.Path,
		}
		if appErr.Cause != nil {
			fields[logger.FieldError] = appErr.Cause.Error()
		}
		logger.GetGlobalLogger().WithContext(c.Request.Context()).Error("Request failed", fields)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends 200 with data as the JSON body.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// RespondCreated sends 201 with data as the JSON body.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// RespondNoContent sends 204.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
