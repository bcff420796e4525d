package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
)

// Success messages
const (
	msgCreate    = "Create Success"
	msgSelectAll = "Select All Success"
	msgSelectOne = "Select One Success"
	msgUpdate    = "Update Success"
	msgDelete    = "Delete Success"
	msgRegister  = "Register Success"
	msgLogin     = "Login Success"
	msgRefresh   = "Refresh Success"
	msgLogout    = "Logout Success"
	msgUpload    = "Upload Success"
)

// respond writes the success envelope
func respond(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// respondError maps err onto a status and writes the error envelope.
// The error is attached to the context for the request logger.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status, message := http.StatusInternalServerError, "Internal server error"
	var details interface{}

	var (
		ve *services.ValidationError
		nf *services.NotFoundError
		ce *services.CapacityError
		nc *services.NoChangeError
		ie *services.InsertError
		ue *services.UpdateError
		cf *services.ConflictError
		re *services.ReferenceError
		ae *services.AuthError
	)
	switch {
	case errors.As(err, &ve):
		status, message, details = http.StatusBadRequest, ve.Error(), ve.Problems
	case errors.As(err, &nf):
		status, message = http.StatusNotFound, nf.Error()
	case errors.As(err, &ce):
		status, message = http.StatusBadRequest, ce.Error()
	case errors.As(err, &nc):
		status, message = http.StatusBadRequest, nc.Error()
	case errors.As(err, &ie):
		message = ie.Error()
	case errors.As(err, &ue):
		status, message = http.StatusNotFound, ue.Error()
	case errors.As(err, &cf):
		status, message = http.StatusConflict, cf.Error()
	case errors.As(err, &re):
		status, message = http.StatusConflict, re.Error()
	case errors.As(err, &ae):
		status, message = http.StatusUnauthorized, ae.Error()
	}

	body := gin.H{
		"error":   http.StatusText(status),
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, body)
}

// pathID parses the named path parameter as an identifier
func pathID(c *gin.Context, param string) (uuid.UUID, error) {
	id, err := models.ParseID(param, c.Param(param))
	if err != nil {
		return uuid.Nil, services.NewValidationError(err.Error())
	}
	return id, nil
}

// queryInt reads an integer query parameter, falling back to def
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// queryFloat reads a float query parameter
func queryFloat(c *gin.Context, name string) (float64, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, services.NewValidationError(fmt.Sprintf("%s must be a number", name))
	}
	return f, true, nil
}

// nearbyQuery reads lng, lat, maxDistance and limit
func nearbyQuery(c *gin.Context) (models.NearbyQuery, error) {
	var q models.NearbyQuery
	lng, hasLng, err := queryFloat(c, "lng")
	if err != nil {
		return q, err
	}
	lat, hasLat, err := queryFloat(c, "lat")
	if err != nil {
		return q, err
	}
	if !hasLng || !hasLat {
		return q, services.NewValidationError("Longitude and latitude are required")
	}
	maxDistance, _, err := queryFloat(c, "maxDistance")
	if err != nil {
		return q, err
	}
	return models.NearbyQuery{
		Lng:         lng,
		Lat:         lat,
		MaxDistance: maxDistance,
		Limit:       queryInt(c, "limit", 0),
	}, nil
}
