package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
)

// CountryHandler serves /country
type CountryHandler struct {
	countries *services.CountryService
}

// NewCountryHandler creates a new country handler
func NewCountryHandler(countries *services.CountryService) *CountryHandler {
	return &CountryHandler{countries: countries}
}

// Create adds a country
// POST /country/add
func (h *CountryHandler) Create(c *gin.Context) {
	var in models.CountryInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	country, err := h.countries.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgCreate, country)
}

// SelectAll lists every country
// GET /country/selAll
func (h *CountryHandler) SelectAll(c *gin.Context) {
	countries, err := h.countries.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, countries)
}

// SelectOne returns one country
// GET /country/selOne/:countryID
func (h *CountryHandler) SelectOne(c *gin.Context) {
	id, err := pathID(c, "countryID")
	if err != nil {
		respondError(c, err)
		return
	}
	country, err := h.countries.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, country)
}

// SelectByISO returns the country with a 2- or 3-letter code
// GET /country/iso/:iso
func (h *CountryHandler) SelectByISO(c *gin.Context) {
	country, err := h.countries.GetByISO(c.Request.Context(), c.Param("iso"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, country)
}

// Search finds countries by name
// GET /country/search?name=
func (h *CountryHandler) Search(c *gin.Context) {
	countries, err := h.countries.Search(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, countries)
}

// Update changes a country
// PUT /country/update/:countryID
func (h *CountryHandler) Update(c *gin.Context) {
	id, err := pathID(c, "countryID")
	if err != nil {
		respondError(c, err)
		return
	}
	var in models.CountryInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	country, err := h.countries.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdate, country)
}

// Delete removes a country
// DELETE /country/delete/:countryID
func (h *CountryHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "countryID")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.countries.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDelete, nil)
}

// RegisterRoutes mounts the country routes on rg
func (h *CountryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/add", h.Create)
	rg.GET("/selAll", h.SelectAll)
	rg.GET("/selOne/:countryID", h.SelectOne)
	rg.GET("/iso/:iso", h.SelectByISO)
	rg.GET("/search", h.Search)
	rg.PUT("/update/:countryID", h.Update)
	rg.DELETE("/delete/:countryID", h.Delete)
}
