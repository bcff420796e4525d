package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
)

// AttractionHandler serves /attraction
type AttractionHandler struct {
	attractions *services.AttractionService
}

// NewAttractionHandler creates a new attraction handler
func NewAttractionHandler(attractions *services.AttractionService) *AttractionHandler {
	return &AttractionHandler{attractions: attractions}
}

type ratingRequest struct {
	Rating *float64 `json:"rating"`
}

func (h *AttractionHandler) Create(c *gin.Context) {
	var in models.AttractionInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	attraction, err := h.attractions.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgCreate, attraction)
}

func attractionQuery(c *gin.Context) services.AttractionQuery {
	return services.AttractionQuery{
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 10),
		ActiveOnly: c.Query("activeOnly") == "true",
		Query:      c.Query("q"),
		Category:   c.Query("category"),
	}
}

// SelectAll returns one page of attractions
// GET /attraction/selAll?page&limit&activeOnly
func (h *AttractionHandler) SelectAll(c *gin.Context) {
	page, err := h.attractions.List(c.Request.Context(), attractionQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, page)
}

// Search returns one page of active attractions by text and/or category
// GET /attraction/search?q&category
func (h *AttractionHandler) Search(c *gin.Context) {
	page, err := h.attractions.Search(c.Request.Context(), attractionQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, page)
}

func (h *AttractionHandler) SelectOne(c *gin.Context) {
	id, err := pathID(c, "attractionID")
	if err != nil {
		respondError(c, err)
		return
	}
	attraction, err := h.attractions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, attraction)
}

// byParent serves the active attractions of a city, province or country
func (h *AttractionHandler) byParent(param string, list func(context.Context, uuid.UUID) ([]models.Attraction, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, param)
		if err != nil {
			respondError(c, err)
			return
		}
		attractions, err := list(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, msgSelectAll, attractions)
	}
}

// Nearby lists active attractions around lng/lat
// GET /attraction/nearby?lng&lat&maxDistance&limit
func (h *AttractionHandler) Nearby(c *gin.Context) {
	q, err := nearbyQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	attractions, err := h.attractions.Nearby(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, attractions)
}

func (h *AttractionHandler) Update(c *gin.Context) {
	id, err := pathID(c, "attractionID")
	if err != nil {
		respondError(c, err)
		return
	}
	var in models.AttractionInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	attraction, err := h.attractions.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdate, attraction)
}

// UpdateRating folds one rating into the running average
// PUT /attraction/rating/:attractionID
func (h *AttractionHandler) UpdateRating(c *gin.Context) {
	id, err := pathID(c, "attractionID")
	if err != nil {
		respondError(c, err)
		return
	}
	var req ratingRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	attraction, err := h.attractions.UpdateRating(c.Request.Context(), id, req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdate, attraction)
}

func (h *AttractionHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "attractionID")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.attractions.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDelete, nil)
}

// RegisterRoutes mounts the attraction routes on rg
func (h *AttractionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/add", h.Create)
	rg.GET("/selAll", h.SelectAll)
	rg.GET("/selOne/:attractionID", h.SelectOne)
	rg.GET("/city/:cityID", h.byParent("cityID", h.attractions.ListByCity))
	rg.GET("/province/:provinceID", h.byParent("provinceID", h.attractions.ListByProvince))
	rg.GET("/country/:countryID", h.byParent("countryID", h.attractions.ListByCountry))
	rg.GET("/nearby", h.Nearby)
	rg.GET("/search", h.Search)
	rg.PUT("/update/:attractionID", h.Update)
	rg.PUT("/rating/:attractionID", h.UpdateRating)
	rg.DELETE("/delete/:attractionID", h.Delete)
}
