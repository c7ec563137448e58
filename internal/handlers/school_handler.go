package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/schoolfinder/internal/errors"
	"github.com/stwalsh4118/schoolfinder/internal/middleware"
	"github.com/stwalsh4118/schoolfinder/internal/models"
	"github.com/stwalsh4118/schoolfinder/internal/search"
	"github.com/stwalsh4118/schoolfinder/internal/services"
)

const datasetUnavailableMessage = "School data is temporarily unavailable. Please try again shortly."

// SchoolHandler handles school-related HTTP requests.
type SchoolHandler struct {
	service    services.SchoolService
	displayCap int

	// encoded full listing, built on the first successful request
	listMu sync.Mutex
	list   *encodedList
}

type encodedList struct {
	body  []byte
	etag  string
	count int
}

// NewSchoolHandler creates a new SchoolHandler instance. A non-positive
// displayCap falls back to search.DefaultDisplayCap.
func NewSchoolHandler(service services.SchoolService, displayCap int) *SchoolHandler {
	if displayCap <= 0 {
		displayCap = search.DefaultDisplayCap
	}
	return &SchoolHandler{
		service:    service,
		displayCap: displayCap,
	}
}

// SearchRequest represents the query parameters for the search endpoint.
type SearchRequest struct {
	Query      string `form:"q" binding:"max=200"`
	State      string `form:"state" binding:"max=32"`
	PostalCode string `form:"postal_code" binding:"omitempty,max=10,postalcode_prefix"`
}

// SearchResponse represents the response for the search endpoint.
type SearchResponse struct {
	Schools   []models.School `json:"schools"`
	Total     int             `json:"total"`
	Displayed int             `json:"displayed"`
	Truncated bool            `json:"truncated"`
}

// SchoolResponse represents the response for the detail endpoints.
type SchoolResponse struct {
	School *models.School `json:"school"`
}

// StatesResponse represents the response for the states endpoint.
type StatesResponse struct {
	States []models.StateCount `json:"states"`
}

// Search handles GET /api/v1/schools/search endpoint.
// It filters the dataset and caps the rendered results at the display cap
// while reporting the true number of matches.
func (h *SchoolHandler) Search(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	criteria := models.Criteria{
		NameQuery:        req.Query,
		State:            req.State,
		PostalCodePrefix: req.PostalCode,
	}.Normalize()

	if log != nil {
		log.Debug("Processing search request", map[string]interface{}{
			"q":           criteria.NameQuery,
			"state":       criteria.State,
			"postal_code": criteria.PostalCodePrefix,
		})
	}

	results, err := h.service.Search(c.Request.Context(), criteria)
	if err != nil {
		h.handleServiceError(c, err, "Failed to search schools")
		return
	}

	page := search.Cap(results, h.displayCap)
	c.Set(middleware.ResultCountKey, page.Total)

	c.JSON(http.StatusOK, SearchResponse{
		Schools:   page.Schools,
		Total:     page.Total,
		Displayed: page.Displayed,
		Truncated: page.Truncated(),
	})
}

// List handles GET /api/v1/schools endpoint.
// It returns the whole dataset for clients that filter locally. The
// payload never changes after load, so it is encoded once and served
// with an ETag.
func (h *SchoolHandler) List(c *gin.Context) {
	list, err := h.encodedList(c)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list schools")
		return
	}

	c.Set(middleware.ResultCountKey, list.count)
	c.Header("ETag", list.etag)
	c.Header("Cache-Control", "public, max-age=300")
	if etagMatches(c.GetHeader("If-None-Match"), list.etag) {
		c.Status(http.StatusNotModified)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", list.body)
}

func (h *SchoolHandler) encodedList(c *gin.Context) (*encodedList, error) {
	h.listMu.Lock()
	defer h.listMu.Unlock()

	if h.list != nil {
		return h.list, nil
	}

	schools, err := h.service.ListSchools(c.Request.Context())
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(schools)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schools: %w", err)
	}

	h.list = &encodedList{
		body:  body,
		etag:  fmt.Sprintf(`"%016x"`, xxhash.Sum64(body)),
		count: len(schools),
	}
	return h.list, nil
}

// etagMatches reports whether an If-None-Match header covers etag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// Get handles GET /api/v1/schools/:id endpoint.
func (h *SchoolHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		apierrors.BadRequest(c, "School id is required", nil)
		return
	}

	school, err := h.service.GetSchool(c.Request.Context(), models.SchoolID(id))
	if err != nil {
		h.handleServiceError(c, err, "Failed to load school")
		return
	}

	c.JSON(http.StatusOK, SchoolResponse{School: school})
}

// GetBySlug handles GET /api/v1/schools/slug/:slug endpoint.
func (h *SchoolHandler) GetBySlug(c *gin.Context) {
	school, err := h.service.GetSchoolBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.handleServiceError(c, err, "Failed to load school")
		return
	}

	c.JSON(http.StatusOK, SchoolResponse{School: school})
}

// States handles GET /api/v1/states endpoint.
func (h *SchoolHandler) States(c *gin.Context) {
	states, err := h.service.States(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err, "Failed to list states")
		return
	}

	c.JSON(http.StatusOK, StatesResponse{States: states})
}

// handleServiceError maps service errors to HTTP responses.
func (h *SchoolHandler) handleServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrSchoolNotFound):
		apierrors.NotFound(c, "School not found")
	case errors.Is(err, services.ErrDatasetNotReady), errors.Is(err, services.ErrDatasetUnavailable):
		apierrors.ServiceUnavailable(c, datasetUnavailableMessage, err)
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}
