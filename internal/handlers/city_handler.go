package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
)

// CityHandler serves /city
type CityHandler struct {
	cities *services.CityService
}

// NewCityHandler creates a new city handler
func NewCityHandler(cities *services.CityService) *CityHandler {
	return &CityHandler{cities: cities}
}

func (h *CityHandler) Create(c *gin.Context) {
	var in models.CityInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	city, err := h.cities.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgCreate, city)
}

func (h *CityHandler) SelectAll(c *gin.Context) {
	cities, err := h.cities.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, cities)
}

func (h *CityHandler) SelectOne(c *gin.Context) {
	id, err := pathID(c, "cityID")
	if err != nil {
		respondError(c, err)
		return
	}
	city, err := h.cities.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, city)
}

func (h *CityHandler) SelectByProvince(c *gin.Context) {
	id, err := pathID(c, "provinceID")
	if err != nil {
		respondError(c, err)
		return
	}
	cities, err := h.cities.ListByProvince(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, cities)
}

func (h *CityHandler) SelectByCountry(c *gin.Context) {
	id, err := pathID(c, "countryID")
	if err != nil {
		respondError(c, err)
		return
	}
	cities, err := h.cities.ListByCountry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, cities)
}

// Nearby lists cities around lng/lat, closest first
// GET /city/nearby?lng&lat&maxDistance
func (h *CityHandler) Nearby(c *gin.Context) {
	q, err := nearbyQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	cities, err := h.cities.Nearby(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, cities)
}

func (h *CityHandler) Search(c *gin.Context) {
	cities, err := h.cities.Search(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, cities)
}

func (h *CityHandler) Update(c *gin.Context) {
	id, err := pathID(c, "cityID")
	if err != nil {
		respondError(c, err)
		return
	}
	var in models.CityInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	city, err := h.cities.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdate, city)
}

func (h *CityHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "cityID")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.cities.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDelete, nil)
}

// RegisterRoutes mounts the city routes on rg
func (h *CityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/add", h.Create)
	rg.GET("/selAll", h.SelectAll)
	rg.GET("/selOne/:cityID", h.SelectOne)
	rg.GET("/province/:provinceID", h.SelectByProvince)
	rg.GET("/country/:countryID", h.SelectByCountry)
	rg.GET("/nearby", h.Nearby)
	rg.GET("/search", h.Search)
	rg.PUT("/update/:cityID", h.Update)
	rg.DELETE("/delete/:cityID", h.Delete)
}
