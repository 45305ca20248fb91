package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// AnimalsHandler serves the farm's animal roster.
type AnimalsHandler struct {
	store  AnimalStore
	logger *zap.Logger
}

// NewAnimalsHandler constructs the animals HTTP adapter.
func NewAnimalsHandler(store AnimalStore, logger *zap.Logger) *AnimalsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnimalsHandler{store: store, logger: logger}
}

type animalRequest struct {
	TagNumber string `json:"tag_number" binding:"required,max=64"`
	Name      string `json:"name" binding:"required,max=120"`
	Species   string `json:"species" binding:"max=64"`
}

// List returns every animal of the caller's farm.
func (h *AnimalsHandler) List(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	animals, err := h.store.FindAnimals(c.Request.Context(), id.FarmID)
	if err != nil {
		h.logger.Error("failed listing animals", zap.String("farm_id", id.FarmID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list animals"})
		return
	}
	if animals == nil {
		animals = []models.Animal{}
	}

	c.JSON(http.StatusOK, gin.H{"animals": animals})
}

// Create registers an animal. Tag numbers are unique within a farm.
func (h *AnimalsHandler) Create(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req animalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag_number and name are required"})
		return
	}

	animal := &models.Animal{
		FarmID:    id.FarmID,
		TagNumber: strings.TrimSpace(req.TagNumber),
		Name:      strings.TrimSpace(req.Name),
		Species:   strings.TrimSpace(req.Species),
	}
	if err := h.store.CreateAnimal(c.Request.Context(), animal); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "tag number already registered"})
			return
		}
		h.logger.Error("failed creating animal", zap.String("farm_id", id.FarmID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to create animal"})
		return
	}

	c.JSON(http.StatusCreated, animal)
}
