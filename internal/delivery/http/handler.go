package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nutrisnap/backend/internal/domain"
	"github.com/nutrisnap/backend/internal/usecase"
)

const (
	// ServiceName is reported by the health check
	ServiceName = "nutrisnap-backend"

	defaultMaxUploadBytes = 10 << 20
)

// Version is the service version, overridable at link time
var Version = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver       *usecase.NutritionResolver
	tracker        *usecase.TrackerService
	classifier     domain.Classifier
	maxUploadBytes int64
}

// NewHandler creates a new HTTP handler. Nil dependencies make the matching
// endpoints answer 503.
func NewHandler(resolver *usecase.NutritionResolver, tracker *usecase.TrackerService, classifier domain.Classifier) *Handler {
	return &Handler{
		resolver:       resolver,
		tracker:        tracker,
		classifier:     classifier,
		maxUploadBytes: defaultMaxUploadBytes,
	}
}

// SetMaxUploadBytes bounds the size of uploaded images
func (h *Handler) SetMaxUploadBytes(n int64) {
	if n > 0 {
		h.maxUploadBytes = n
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": Version,
	})
}

// looseString accepts a JSON string or number, e.g. quantities typed into a form
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = looseString(num.String())
		return nil
	}

	return fmt.Errorf("expected string or number, got %s", string(data))
}

type resolveRequest struct {
	FoodItem string      `json:"food_item" binding:"required,foodlabel"`
	Quantity looseString `json:"quantity"`
}

// ResolveNutrition returns the nutrient breakdown for a food label and quantity.
// It always answers 200 with a record once the request is well-formed.
func (h *Handler) ResolveNutrition(c *gin.Context) {
	if h.resolver == nil {
		respondNotConfigured(c, "nutrition resolver")
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	record := h.resolver.Resolve(c.Request.Context(), foodLabel(req.FoodItem), string(req.Quantity))
	c.JSON(http.StatusOK, record)
}

// Classify predicts the food label of an uploaded image file
func (h *Handler) Classify(c *gin.Context) {
	if h.classifier == nil {
		respondError(c, domain.ErrModelUnavailable)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, fmt.Errorf("%w: file is required", domain.ErrInvalidRequest))
		return
	}
	if file.Size > h.maxUploadBytes {
		respondError(c, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidImage, h.maxUploadBytes))
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes))
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err))
		return
	}

	label, err := h.classifier.Classify(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}

	image := domain.DataURI{ContentType: http.DetectContentType(data), Data: data}
	c.JSON(http.StatusOK, gin.H{
		"prediction": label,
		"image_data": image.String(),
	})
}

type cameraRequest struct {
	Image string `json:"image" binding:"required"`
}

// ClassifyCamera predicts the food label of a base64 data-URI camera capture
func (h *Handler) ClassifyCamera(c *gin.Context) {
	if h.classifier == nil {
		respondError(c, domain.ErrModelUnavailable)
		return
	}

	var req cameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	img, err := domain.ParseDataURI(req.Image)
	if err != nil {
		respondError(c, err)
		return
	}

	label, err := h.classifier.Classify(c.Request.Context(), img.Data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prediction": label})
}

type addEntryRequest struct {
	FoodItem  string            `json:"food_item" binding:"required,foodlabel"`
	Quantity  looseString       `json:"quantity"`
	Calories  looseString       `json:"calories"`
	Nutrients map[string]string `json:"nutrients"`
	Date      string            `json:"date" binding:"omitempty,datetime=2006-01-02"`
	MealType  string            `json:"meal_type" binding:"omitempty,max=32"`
	ImageData string            `json:"img_data"`
	Timestamp *time.Time        `json:"timestamp"`
}

// AddTrackerEntry logs a consumed food for the authenticated user
func (h *Handler) AddTrackerEntry(c *gin.Context) {
	if h.tracker == nil {
		respondNotConfigured(c, "tracker")
		return
	}

	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	nutrients := make(map[string]domain.NutrientValue, len(req.Nutrients))
	for name, value := range req.Nutrients {
		nutrients[name] = domain.NutrientValue(value)
	}

	entryReq := domain.NewEntryRequest{
		FoodItem:  foodLabel(req.FoodItem),
		Quantity:  string(req.Quantity),
		Calories:  string(req.Calories),
		Nutrients: nutrients,
		Date:      req.Date,
		MealType:  req.MealType,
		ImageData: req.ImageData,
	}
	if req.Timestamp != nil {
		entryReq.Timestamp = *req.Timestamp
	}

	entry, err := h.tracker.AddEntry(c.Request.Context(), Owner(c), entryReq)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// Dashboard returns today's and the trailing month's entries and totals
func (h *Handler) Dashboard(c *gin.Context) {
	if h.tracker == nil {
		respondNotConfigured(c, "tracker")
		return
	}

	dashboard, err := h.tracker.Dashboard(c.Request.Context(), Owner(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// DeleteTrackerEntry removes one of the authenticated user's entries
func (h *Handler) DeleteTrackerEntry(c *gin.Context) {
	if h.tracker == nil {
		respondNotConfigured(c, "tracker")
		return
	}

	if err := h.tracker.DeleteEntry(c.Request.Context(), Owner(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// foodLabel canonicalises vocabulary names; other names pass through and resolve to N/A
func foodLabel(name string) domain.FoodLabel {
	if label, ok := domain.ParseFoodLabel(name); ok {
		return label
	}
	return domain.FoodLabel(strings.TrimSpace(name))
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoFoodDetected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)

	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		message = "internal server error"
	case http.StatusServiceUnavailable:
		message = "Model not available"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func respondNotConfigured(c *gin.Context, component string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
		"error": component + " not configured",
	})
}
