package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/internal/parts"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationErrorResponse is the 422 body.
type ValidationErrorResponse struct {
	Detail []ValidationError `json:"detail"`
}

// errorStatus maps domain errors to their stable HTTP status and message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, users.ErrConflict):
		return http.StatusConflict, "user_id already exists"
	case errors.Is(err, users.ErrInvalidArgument):
		return http.StatusBadRequest, "user_id in body must match URL"
	case errors.Is(err, parts.ErrPartNotFound):
		return http.StatusNotFound, "Part not found in Parts service"
	case errors.Is(err, parts.ErrUnavailable):
		return http.StatusServiceUnavailable, "Parts service unavailable"
	case errors.Is(err, parts.ErrUpstream):
		return http.StatusBadGateway, "Unexpected response from Parts service"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func respondError(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	_ = c.Error(err)
	c.JSON(status, ErrorResponse{Detail: msg})
}

func respondValidation(c *gin.Context, details []ValidationError) {
	c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{Detail: details})
}

// bindUser decodes and validates a user body, writing a 422 on failure.
func bindUser(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondValidation(c, validationDetails(err))
		return false
	}
	return true
}

// pathInt parses an integer path parameter, writing a 422 on failure.
func pathInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		respondValidation(c, []ValidationError{{
			Field:   name,
			Message: "Value must be an integer",
			Type:    "int_parsing",
		}})
		return 0, false
	}
	return v, true
}

func validationDetails(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ValidationError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
				Type:    fe.Tag(),
			})
		}
		return details
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []ValidationError{{
			Field:   typeErr.Field,
			Message: "Value must be of type " + typeErr.Type.String(),
			Type:    "type_error",
		}}
	}

	return []ValidationError{{Field: "body", Message: "Invalid JSON body", Type: "json_invalid"}}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + fe.Param()
	default:
		return "Invalid value"
	}
}

// useJSONFieldNames makes validation errors report json names (user_id)
// instead of Go field names (UserID).
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}
