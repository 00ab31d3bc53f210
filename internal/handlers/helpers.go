package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"taskflow/internal/authz"
	"taskflow/internal/services"
)

// report validation failures under the json field names, not Go struct names
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// getPrincipal rebuilds the authenticated principal from the values the auth
// middleware put into the request context.
func getPrincipal(c *gin.Context) authz.Principal {
	p := authz.Principal{}
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(int64); ok {
			p.ID = id
		}
	}
	if v, ok := c.Get("is_staff"); ok {
		if b, ok := v.(bool); ok {
			p.IsStaff = b
		}
	}
	if v, ok := c.Get("is_superuser"); ok {
		if b, ok := v.(bool); ok {
			p.IsSuperuser = b
		}
	}
	return p
}

// bindError renders JSON binding failures in the same field-keyed shape the
// services produce.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := map[string][]string{}
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], bindingMessage(fe))
		}
		c.JSON(http.StatusBadRequest, fields)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"detail": "Malformed request."})
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	default:
		return "This value is invalid."
	}
}

// renderError maps service errors onto the HTTP error taxonomy. Unexpected
// errors are logged with detail server-side and returned as a generic message.
func renderError(c *gin.Context, log *zap.Logger, err error) {
	if ve, ok := services.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, ve.Fields)
		return
	}
	switch err {
	case services.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case services.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
	case services.ErrInvalidCredentials:
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
	default:
		log.Error("unhandled error",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
	}
}
