package utils

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// JSONValidationError renders validator.v10 failures as a field->message map;
// anything else falls back to a plain 422.
func JSONValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		JSONError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = fe.Tag()
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": "validation failed", "fields": fields})
}
