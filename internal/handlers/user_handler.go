package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/travelbooking/catalog-api/internal/middleware"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
	"github.com/travelbooking/catalog-api/internal/utils"
)

// UserHandler serves /user
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// LogoutRequest represents the logout request body
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
	AllDevices   bool   `json:"allDevices"`
}

// Register creates a customer, admin or staff account
// POST /user/register
func (h *UserHandler) Register(c *gin.Context) {
	var in models.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.Register(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, msgRegister, user)
}

// Login returns the user with an access token and a refresh token
// POST /user/login
func (h *UserHandler) Login(c *gin.Context) {
	var in models.LoginInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	result, err := h.users.Login(c.Request.Context(), &in, utils.Session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgLogin, result)
}

// Refresh rotates a refresh token
// PUT /user/refresh
func (h *UserHandler) Refresh(c *gin.Context) {
	var in models.RefreshInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	result, err := h.users.Refresh(c.Request.Context(), in.RefreshToken, utils.Session(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgRefresh, result)
}

// Logout revokes the caller's refresh token, or all of their sessions
// POST /user/logout
func (h *UserHandler) Logout(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		respondError(c, &services.AuthError{Message: "Unauthorized"})
		return
	}
	var req LogoutRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := h.users.Logout(c.Request.Context(), userCtx.UserID, req.RefreshToken, req.AllDevices); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgLogout, nil)
}

func (h *UserHandler) SelectAll(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectAll, users)
}

func (h *UserHandler) SelectOne(c *gin.Context) {
	id, err := pathID(c, "userID")
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgSelectOne, user)
}

// Update changes name, email and phone
// PUT /user/update/:userID
func (h *UserHandler) Update(c *gin.Context) {
	id, err := pathID(c, "userID")
	if err != nil {
		respondError(c, err)
		return
	}
	var in models.ProfileInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgUpdate, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "userID")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgDelete, nil)
}

// RegisterPublicRoutes mounts the unauthenticated routes; limit guards
// register and login
func (h *UserHandler) RegisterPublicRoutes(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	rg.POST("/register", limit, h.Register)
	rg.POST("/login", limit, h.Login)
	rg.PUT("/refresh", h.Refresh)
}

// RegisterRoutes mounts the authenticated routes
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/logout", h.Logout)
	rg.GET("/selAll", h.SelectAll)
	rg.GET("/selOne/:userID", h.SelectOne)
	rg.PUT("/update/:userID", h.Update)
	rg.DELETE("/delete/:userID", h.Delete)
}
