// internal/api/species.go
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/bird-catalog/internal/catalog"
	"github.com/tphakala/bird-catalog/internal/datastore"
	"github.com/tphakala/bird-catalog/internal/errors"
)

// initSpeciesRoutes registers the species catalog endpoints
func (c *Controller) initSpeciesRoutes() {
	c.Echo.GET("/species", c.ListSpecies)
	c.Echo.GET("/species/:label", c.GetSpecies)
	c.Echo.POST("/species", c.CreateSpecies)
	c.Echo.POST("/species/:label/recognised", c.RecogniseSpecies)
}

// createSpeciesResponse is the body returned after a successful create.
type createSpeciesResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// recogniseResponse is the body returned after a successful recognition.
type recogniseResponse struct {
	Message string `json:"message"`
}

// ListSpecies handles GET /species requests. The list is cached between
// writes since the catalog changes far less often than it is read.
func (c *Controller) ListSpecies(ctx echo.Context) error {
	if cached, found := c.speciesCache.Get(speciesListCacheKey); found {
		if list, ok := cached.([]datastore.Species); ok {
			return ctx.JSON(http.StatusOK, list)
		}
	}

	list, err := c.Catalog.ListAll(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list birds", http.StatusInternalServerError)
	}

	c.speciesCache.Set(speciesListCacheKey, list, cache.DefaultExpiration)

	return ctx.JSON(http.StatusOK, list)
}

// GetSpecies handles GET /species/:label requests
func (c *Controller) GetSpecies(ctx echo.Context) error {
	label := ctx.Param("label")

	species, err := c.Catalog.GetByLabel(ctx.Request().Context(), label)
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Bird not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to get bird", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, species)
}

// CreateSpecies handles POST /species requests
func (c *Controller) CreateSpecies(ctx echo.Context) error {
	var input catalog.CreateInput
	if err := ctx.Bind(&input); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	id, err := c.Catalog.Create(ctx.Request().Context(), &input)
	if err != nil {
		switch {
		case errors.IsValidation(err):
			return c.HandleError(ctx, err, validationDetail(err), http.StatusBadRequest)
		case errors.IsConflict(err):
			return c.HandleError(ctx, err, "Bird already exists", http.StatusBadRequest)
		default:
			return c.HandleError(ctx, err, "Failed to add bird", http.StatusInternalServerError)
		}
	}

	c.speciesCache.Delete(speciesListCacheKey)

	return ctx.JSON(http.StatusOK, createSpeciesResponse{Message: "Bird added", ID: id})
}

// RecogniseSpecies handles POST /species/:label/recognised requests
func (c *Controller) RecogniseSpecies(ctx echo.Context) error {
	label := ctx.Param("label")

	if err := c.Catalog.RecordRecognition(ctx.Request().Context(), label); err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Bird not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to increment recognition count", http.StatusInternalServerError)
	}

	c.speciesCache.Delete(speciesListCacheKey)

	return ctx.JSON(http.StatusOK, recogniseResponse{
		Message: fmt.Sprintf("Recognition count incremented for '%s'", label),
	})
}

// validationDetail extracts the client facing message from a validation
// error, e.g. "name is required".
func validationDetail(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		if field, ok := ee.GetContext()["field"].(string); ok {
			return fmt.Sprintf("%s is required", field)
		}
	}
	return err.Error()
}
