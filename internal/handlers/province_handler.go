package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
)

// ProvinceHandler serves /province
type ProvinceHandler struct {
	provinces *services.ProvinceService
}

// NewProvinceHandler creates a new province handler
func NewProvinceHandler(provinces *services.ProvinceService) *ProvinceHandler {
	return &ProvinceHandler{provinces: provinces}
}

// Create adds a province
func (h *ProvinceHandler) Create(c *gin.Context) {
	var in models.ProvinceInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	province, err := h.provinces.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgCreate, province)
}

// SelectAll lists every province
func (h *ProvinceHandler) SelectAll(c *gin.Context) {
	provinces, err := h.provinces.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, provinces)
}

// SelectOne returns one province
func (h *ProvinceHandler) SelectOne(c *gin.Context) {
	id, err := pathID(c, "provinceID")
	if err != nil {
		respondError(c, err)
		return
	}
	province, err := h.provinces.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, province)
}

// SelectByCountry lists the provinces of a country
func (h *ProvinceHandler) SelectByCountry(c *gin.Context) {
	id, err := pathID(c, "countryID")
	if err != nil {
		respondError(c, err)
		return
	}
	provinces, err := h.provinces.ListByCountry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, provinces)
}

// Search finds provinces by name
func (h *ProvinceHandler) Search(c *gin.Context) {
	provinces, err := h.provinces.Search(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, provinces)
}

// Update changes a province
func (h *ProvinceHandler) Update(c *gin.Context) {
	id, err := pathID(c, "provinceID")
	if err != nil {
		respondError(c, err)
		return
	}
	var in models.ProvinceInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	province, err := h.provinces.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdate, province)
}

// Delete removes a province
func (h *ProvinceHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "provinceID")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.provinces.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDelete, nil)
}

// RegisterRoutes mounts the province routes on rg
func (h *ProvinceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/add", h.Create)
	rg.GET("/selAll", h.SelectAll)
	rg.GET("/selOne/:provinceID", h.SelectOne)
	rg.GET("/country/:countryID", h.SelectByCountry)
	rg.GET("/search", h.Search)
	rg.PUT("/update/:provinceID", h.Update)
	rg.DELETE("/delete/:provinceID", h.Delete)
}
