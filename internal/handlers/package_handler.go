package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
)

// PackageHandler serves /package
type PackageHandler struct {
	packages *services.PackageService
}

// NewPackageHandler creates a new package handler
func NewPackageHandler(packages *services.PackageService) *PackageHandler {
	return &PackageHandler{packages: packages}
}

func (h *PackageHandler) Create(c *gin.Context) {
	var in models.PackageInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	pkg, err := h.packages.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgCreate, pkg)
}

func (h *PackageHandler) SelectAll(c *gin.Context) {
	packages, err := h.packages.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, packages)
}

func (h *PackageHandler) SelectOne(c *gin.Context) {
	id, err := pathID(c, "packageID")
	if err != nil {
		respondError(c, err)
		return
	}
	pkg, err := h.packages.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, pkg)
}

func (h *PackageHandler) Search(c *gin.Context) {
	packages, err := h.packages.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, packages)
}

// popularity serves the most or least rated packages
// GET /package/mostPopular?limit, /package/leastPopular?limit
func (h *PackageHandler) popularity(list func(context.Context, int) ([]models.Package, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		packages, err := list(c.Request.Context(), queryInt(c, "limit", services.DefaultPopularLimit))
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, msgSelectAll, packages)
	}
}

func (h *PackageHandler) Active(c *gin.Context) {
	packages, err := h.packages.Active(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, packages)
}

func (h *PackageHandler) SelectByCountry(c *gin.Context) {
	id, err := pathID(c, "countryID")
	if err != nil {
		respondError(c, err)
		return
	}
	packages, err := h.packages.ListByCountry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, packages)
}

// Departures lists active packages with an available departure on a day
// GET /package/departures?date=YYYY-MM-DD
func (h *PackageHandler) Departures(c *gin.Context) {
	packages, err := h.packages.ByDepartureDate(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, packages)
}

func (h *PackageHandler) Update(c *gin.Context) {
	id, err := pathID(c, "packageID")
	if err != nil {
		respondError(c, err)
		return
	}
	var in models.PackageInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	pkg, err := h.packages.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdate, pkg)
}

func (h *PackageHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "packageID")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.packages.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDelete, nil)
}

// RegisterRoutes mounts the package routes on rg
func (h *PackageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/add", h.Create)
	rg.GET("/selAll", h.SelectAll)
	rg.GET("/selOne/:packageID", h.SelectOne)
	rg.GET("/search", h.Search)
	rg.GET("/mostPopular", h.popularity(h.packages.MostPopular))
	rg.GET("/leastPopular", h.popularity(h.packages.LeastPopular))
	rg.GET("/active", h.Active)
	rg.GET("/country/:countryID", h.SelectByCountry)
	rg.GET("/departures", h.Departures)
	rg.PUT("/update/:packageID", h.Update)
	rg.DELETE("/delete/:packageID", h.Delete)
}
