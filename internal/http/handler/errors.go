package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"edulift.app/membership/internal/http/dto"
	"edulift.app/membership/internal/service"
)

var statusByCode = map[service.Code]int{
	service.CodeUnauthorized:             http.StatusForbidden,
	service.CodeInvalidCode:              http.StatusNotFound,
	service.CodeNotFound:                 http.StatusNotFound,
	service.CodeExpired:                  http.StatusGone,
	service.CodeEmailMismatch:            http.StatusForbidden,
	service.CodeAlreadyMember:            http.StatusConflict,
	service.CodeDuplicateInvitation:      http.StatusConflict,
	service.CodeFamilyConflict:           http.StatusConflict,
	service.CodeFamilyFull:               http.StatusUnprocessableEntity,
	service.CodeLastAdmin:                http.StatusUnprocessableEntity,
	service.CodeFamilyOnboardingRequired: http.StatusUnprocessableEntity,
	service.CodeRequiresAdminAction:      http.StatusForbidden,
	service.CodeInvalidInput:             http.StatusBadRequest,
}

// StatusFor maps a business error code to its HTTP status.
func StatusFor(code service.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError renders business errors with their code and metadata. Anything
// else is an infrastructure failure and is logged, not exposed.
func writeError(c *gin.Context, err error, msg string) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		c.JSON(StatusFor(svcErr.Code), dto.ErrorResponse{
			Error:   svcErr.Message,
			Code:    svcErr.Code,
			Details: svcErr.Metadata,
		})
		return
	}

	slog.ErrorContext(c.Request.Context(), msg, "error", err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg, Code: service.CodeInvalidInput})
}
