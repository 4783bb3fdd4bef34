// internal/handlers/user.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/truckzone/truckzone-backend/internal/i18n"
	"github.com/truckzone/truckzone-backend/internal/models"
	"github.com/truckzone/truckzone-backend/internal/services"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GET /users?userType=
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context(), c.Query("userType"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, users)
}

// GET /user/:uid
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUserByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// POST /user
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			utils.SoftRejectResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyUserEmailExists))
			return
		}
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, user)
}

// PUT /user/make-admin/:id
func (h *UserHandler) MakeAdmin(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	user, err := h.userService.MakeAdmin(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// PUT /user/verify-user/:id
func (h *UserHandler) VerifyUser(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	user, err := h.userService.VerifyUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// DELETE /user/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"deleted": true, "id": id})
}

// GET /users/admin/:uid
func (h *UserHandler) IsAdmin(c *gin.Context) {
	isAdmin, err := h.userService.HasRole(c.Request.Context(), c.Param("uid"), models.UserTypeAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"isAdmin": isAdmin})
}

// GET /users/seller/:uid
func (h *UserHandler) IsSeller(c *gin.Context) {
	isSeller, err := h.userService.HasRole(c.Request.Context(), c.Param("uid"), models.UserTypeSeller)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"isSeller": isSeller})
}
