package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/schoolfinder/internal/logger"
	"github.com/stwalsh4118/schoolfinder/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestContext creates a test Gin context with logger and request ID in context.
func setupTestContext(withRequest bool) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/schools/search", nil)

	if withRequest {
		c.Set("logger", logger.Nop())
		c.Set(middleware.RequestIDKey, "test-request-id")
	}
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Failed to parse error response JSON")
	return response
}

func TestResponses(t *testing.T) {
	tests := []struct {
		name        string
		call        func(c *gin.Context)
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails map[string]interface{}
	}{
		{
			name:        "not found",
			call:        func(c *gin.Context) { NotFound(c, "School not found") },
			wantStatus:  http.StatusNotFound,
			wantCode:    ErrNotFound,
			wantMessage: "School not found",
		},
		{
			name:        "bad request without details",
			call:        func(c *gin.Context) { BadRequest(c, "Invalid query parameters", nil) },
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrBadRequest,
			wantMessage: "Invalid query parameters",
		},
		{
			name: "bad request with details",
			call: func(c *gin.Context) {
				BadRequest(c, "Invalid query parameters", map[string]interface{}{"state": "unknown"})
			},
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrBadRequest,
			wantMessage: "Invalid query parameters",
			wantDetails: map[string]interface{}{"state": "unknown"},
		},
		{
			name:        "internal server error",
			call:        func(c *gin.Context) { InternalServerError(c, "Failed to list schools", errors.New("encode failed")) },
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrInternalServer,
			wantMessage: "Failed to list schools",
		},
		{
			name: "service unavailable",
			call: func(c *gin.Context) {
				ServiceUnavailable(c, "School data is not available right now", errors.New("open schools.json: no such file"))
			},
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    ErrDatasetUnavailable,
			wantMessage: "School data is not available right now",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupTestContext(true)

			tt.call(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			response := decode(t, w)
			assert.Equal(t, tt.wantCode, response.Error.Code)
			assert.Equal(t, tt.wantMessage, response.Error.Message)
			assert.Equal(t, "test-request-id", response.Error.RequestID)
			assert.Equal(t, tt.wantDetails, response.Error.Details)
			assert.NotContains(t, w.Body.String(), "no such file", "causes never reach the client")
			assert.NotContains(t, w.Body.String(), "encode failed")
		})
	}
}

func TestServiceUnavailable_RetryAfter(t *testing.T) {
	c, w := setupTestContext(true)

	ServiceUnavailable(c, "loading", nil)

	assert.Equal(t, RetryAfterSeconds, w.Header().Get("Retry-After"))
}

func TestValidationError(t *testing.T) {
	c, w := setupTestContext(true)

	type searchQuery struct {
		Query      string `validate:"max=5"`
		PostalCode string `validate:"required,alphanum"`
	}

	err := validator.New().Struct(searchQuery{Query: "far too long a query", PostalCode: "43 215"})
	require.Error(t, err, "Expected validation to fail")

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	ValidationError(c, validationErrors)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decode(t, w)
	assert.Equal(t, ErrValidation, response.Error.Code)
	assert.Equal(t, "Validation failed for one or more fields", response.Error.Message)
	assert.Equal(t, "Value is too long or large (maximum: 5)", response.Error.Details["Query"])
	assert.Equal(t, "Must contain only letters and digits", response.Error.Details["PostalCode"])
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		tag      string
		param    string
		expected string
	}{
		{tag: "required", expected: "This field is required"},
		{tag: "min", param: "2", expected: "Value is too short or small (minimum: 2)"},
		{tag: "max", param: "200", expected: "Value is too long or large (maximum: 200)"},
		{tag: "len", param: "5", expected: "Must have length of 5"},
		{tag: "oneof", param: "file http postgres", expected: "Must be one of: file http postgres"},
		{tag: "alphanum", expected: "Must contain only letters and digits"},
		{tag: "postalcode_prefix", expected: "Must contain only digits, letters or hyphens"},
		{tag: "unknown_tag", expected: "Validation failed for tag: unknown_tag"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatValidationError(&mockFieldError{tag: tt.tag, param: tt.param}))
		})
	}
}

func TestErrorResponseWithoutContext(t *testing.T) {
	// No logger or request ID set by middleware
	c, w := setupTestContext(false)

	NotFound(c, "School not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := decode(t, w)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Empty(t, response.Error.RequestID)
	assert.NotContains(t, w.Body.String(), "request_id")
}

// mockFieldError is a mock implementation of validator.FieldError for testing.
type mockFieldError struct {
	tag   string
	param string
}

func (m *mockFieldError) Tag() string                    { return m.tag }
func (m *mockFieldError) ActualTag() string              { return m.tag }
func (m *mockFieldError) Namespace() string              { return "" }
func (m *mockFieldError) StructNamespace() string        { return "" }
func (m *mockFieldError) Field() string                  { return "TestField" }
func (m *mockFieldError) StructField() string            { return "TestField" }
func (m *mockFieldError) Value() interface{}             { return nil }
func (m *mockFieldError) Param() string                  { return m.param }
func (m *mockFieldError) Kind() reflect.Kind             { return reflect.String }
func (m *mockFieldError) Type() reflect.Type             { return nil }
func (m *mockFieldError) Translate(ut.Translator) string { return "" }
func (m *mockFieldError) Error() string                  { return "" }
