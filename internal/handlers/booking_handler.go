package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/travelbooking/catalog-api/internal/invoice"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
)

// BookingHandler serves /booking
type BookingHandler struct {
	bookings *services.BookingService
	now      func() time.Time
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings, now: time.Now}
}

// Create validates, prices and stores a booking
// POST /booking/add
func (h *BookingHandler) Create(c *gin.Context) {
	var in models.BookingInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgCreate, booking)
}

// SelectAll returns one page of bookings, newest first
// GET /booking/selAll?page&limit&status
func (h *BookingHandler) SelectAll(c *gin.Context) {
	page, err := h.bookings.List(c.Request.Context(), services.BookingQuery{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
		Status: c.Query("status"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, page)
}

// SelectByUser returns one page of a user's bookings
// GET /booking/user/:userID
func (h *BookingHandler) SelectByUser(c *gin.Context) {
	userID, err := pathID(c, "userID")
	if err != nil {
		respondError(c, err)
		return
	}
	page, err := h.bookings.List(c.Request.Context(), services.BookingQuery{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
		Status: c.Query("status"),
		UserID: &userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, page)
}

func (h *BookingHandler) SelectOne(c *gin.Context) {
	id, err := pathID(c, "bookingID")
	if err != nil {
		respondError(c, err)
		return
	}
	booking, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, booking)
}

// summaryStatuses accepts both ?status=a&status=b and ?status=a,b
func summaryStatuses(c *gin.Context) []string {
	var out []string
	for _, raw := range c.QueryArray("status") {
		out = append(out, lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		})...)
	}
	return out
}

// Summary aggregates bookings per package and grouping
// GET /booking/bookingsummary?packageID&status&startDate&endDate&groupBy
func (h *BookingHandler) Summary(c *gin.Context) {
	summary, err := h.bookings.Summary(c.Request.Context(), services.SummaryQuery{
		PackageID: c.Query("packageID"),
		Statuses:  summaryStatuses(c),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		GroupBy:   c.Query("groupBy"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, summary)
}

// Invoice renders a booking as a PDF
// GET /booking/invoice/:bookingID
func (h *BookingHandler) Invoice(c *gin.Context) {
	id, err := pathID(c, "bookingID")
	if err != nil {
		respondError(c, err)
		return
	}
	booking, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	pdf, err := invoice.Render(booking, h.now())
	if err != nil {
		respondError(c, fmt.Errorf("render invoice: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, invoice.Filename(booking)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Update applies a partial update, recomputing totals when needed
// PUT /booking/update/:bookingID
func (h *BookingHandler) Update(c *gin.Context) {
	id, err := pathID(c, "bookingID")
	if err != nil {
		respondError(c, err)
		return
	}
	var in models.BookingInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	booking, err := h.bookings.Update(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdate, booking)
}

func (h *BookingHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "bookingID")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.bookings.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDelete, nil)
}

// RegisterRoutes mounts the booking routes on rg; summary is restricted
// to the given middleware chain
func (h *BookingHandler) RegisterRoutes(rg *gin.RouterGroup, summaryGuard ...gin.HandlerFunc) {
	rg.POST("/add", h.Create)
	rg.GET("/selAll", h.SelectAll)
	rg.GET("/selOne/:bookingID", h.SelectOne)
	rg.GET("/user/:userID", h.SelectByUser)
	rg.GET("/bookingsummary", append(summaryGuard, h.Summary)...)
	rg.GET("/invoice/:bookingID", h.Invoice)
	rg.PUT("/update/:bookingID", h.Update)
	rg.DELETE("/delete/:bookingID", h.Delete)
}
