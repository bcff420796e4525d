package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
)

// ReviewHandler serves /review
type ReviewHandler struct {
	reviews *services.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var in models.ReviewInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgCreate, review)
}

// SelectAll returns one page of reviews, optionally for one target
// GET /review/selAll?page&limit&targetType&targetId
func (h *ReviewHandler) SelectAll(c *gin.Context) {
	page, err := h.reviews.List(c.Request.Context(), services.ReviewQuery{
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 10),
		TargetType: c.Query("targetType"),
		TargetID:   c.Query("targetId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, page)
}

func (h *ReviewHandler) SelectOne(c *gin.Context) {
	id, err := pathID(c, "reviewID")
	if err != nil {
		respondError(c, err)
		return
	}
	review, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, review)
}

func (h *ReviewHandler) SelectByUser(c *gin.Context) {
	id, err := pathID(c, "userID")
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.reviews.ListByUser(c.Request.Context(), id, queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, page)
}

// Rating returns the rating statistics of a target
// GET /review/rating?targetType&targetId
func (h *ReviewHandler) Rating(c *gin.Context) {
	stats, err := h.reviews.RatingStats(c.Request.Context(), c.Query("targetType"), c.Query("targetId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, stats)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	id, err := pathID(c, "reviewID")
	if err != nil {
		respondError(c, err)
		return
	}
	var in models.ReviewInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	review, err := h.reviews.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdate, review)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "reviewID")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDelete, nil)
}

// RegisterRoutes mounts the review routes on rg
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/add", h.Create)
	rg.GET("/selAll", h.SelectAll)
	rg.GET("/selOne/:reviewID", h.SelectOne)
	rg.GET("/user/:userID", h.SelectByUser)
	rg.GET("/rating", h.Rating)
	rg.PUT("/update/:reviewID", h.Update)
	rg.DELETE("/delete/:reviewID", h.Delete)
}
