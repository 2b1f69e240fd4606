package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enlistment-api/internal/middleware"
	"github.com/noah-isme/enlistment-api/internal/models"
	appErrors "github.com/noah-isme/enlistment-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// studentNumberParam reads the :number path parameter.
func studentNumberParam(c *gin.Context) (int, error) {
	raw := c.Param("number")
	number, err := strconv.Atoi(raw)
	if err != nil || number < 0 {
		return 0, appErrors.Clonef(appErrors.ErrInvalidArgument, "invalid student number %q", raw)
	}
	return number, nil
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}
