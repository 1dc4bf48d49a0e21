package api

import (
	"errors"
	"fmt"
	"imtfit/coaching-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler holds the admin service dependency.
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// --- Request Structs ---

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type CreateClientRequest struct {
	Name     string  `json:"name" binding:"required"`
	Phone    string  `json:"phone" binding:"required"`
	Password string  `json:"password" binding:"required,min=8"`
	CoachID  *string `json:"coachId,omitempty"`
}

type UpdateUserRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// AssignCoachRequest carries the new coach, or null to unassign.
type AssignCoachRequest struct {
	CoachID *string `json:"coachId"`
}

// --- Helpers ---

func parseOptionalCoachID(raw *string) (*primitive.ObjectID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func mapAdminUserError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCoachNotFound):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotACoach), errors.Is(err, service.ErrNotAClient):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

// --- Handler Methods ---

// Stats returns platform-wide counters.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Users lists every account on the platform.
func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.adminService.GetUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load users")
		return
	}

	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = MapUserToResponse(&users[i])
	}
	c.JSON(http.StatusOK, responses)
}

// UserByID returns one account.
func (h *AdminHandler) UserByID(c *gin.Context) {
	userID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}

	user, err := h.adminService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		mapAdminUserError(c, err, "Failed to load user")
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// Coaches lists coach accounts.
func (h *AdminHandler) Coaches(c *gin.Context) {
	coaches, err := h.adminService.GetCoaches(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load coaches")
		return
	}

	responses := make([]UserResponse, len(coaches))
	for i := range coaches {
		responses[i] = MapUserToResponse(&coaches[i])
	}
	c.JSON(http.StatusOK, responses)
}

// CreateCoach provisions a coach account.
func (h *AdminHandler) CreateCoach(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	coach, err := h.adminService.CreateCoach(c.Request.Context(), req.Name, req.Phone, req.Password)
	if err != nil {
		mapAdminUserError(c, err, "Failed to create coach")
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(coach))
}

// UpdateCoach edits a coach's profile fields.
func (h *AdminHandler) UpdateCoach(c *gin.Context) {
	coachID, ok := objectIDParam(c, "coachId")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	coach, err := h.adminService.UpdateCoach(c.Request.Context(), coachID, req.Name, req.Phone)
	if err != nil {
		mapAdminUserError(c, err, "Failed to update coach")
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(coach))
}

// DeleteCoach removes a coach; their clients become unassigned.
func (h *AdminHandler) DeleteCoach(c *gin.Context) {
	coachID, ok := objectIDParam(c, "coachId")
	if !ok {
		return
	}

	if err := h.adminService.DeleteCoach(c.Request.Context(), coachID); err != nil {
		mapAdminUserError(c, err, "Failed to delete coach")
		return
	}

	c.Status(http.StatusNoContent)
}

// Clients lists client accounts.
func (h *AdminHandler) Clients(c *gin.Context) {
	clients, err := h.adminService.GetClients(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load clients")
		return
	}

	responses := make([]UserResponse, len(clients))
	for i := range clients {
		responses[i] = MapUserToResponse(&clients[i])
	}
	c.JSON(http.StatusOK, responses)
}

// CreateClient provisions a client account, optionally pre-assigned to
// a coach.
func (h *AdminHandler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	coachID, err := parseOptionalCoachID(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coachId format")
		return
	}

	client, err := h.adminService.CreateClient(c.Request.Context(), req.Name, req.Phone, req.Password, coachID)
	if err != nil {
		mapAdminUserError(c, err, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(client))
}

// UpdateClient edits a client's profile fields.
func (h *AdminHandler) UpdateClient(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	client, err := h.adminService.UpdateClient(c.Request.Context(), clientID, req.Name, req.Phone)
	if err != nil {
		mapAdminUserError(c, err, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// DeleteClient removes a client account.
func (h *AdminHandler) DeleteClient(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	if err := h.adminService.DeleteClient(c.Request.Context(), clientID); err != nil {
		mapAdminUserError(c, err, "Failed to delete client")
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignCoach sets or clears a client's coach.
func (h *AdminHandler) AssignCoach(c *gin.Context) {
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	var req AssignCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	coachID, err := parseOptionalCoachID(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coachId format")
		return
	}

	client, err := h.adminService.AssignCoach(c.Request.Context(), clientID, coachID)
	if err != nil {
		mapAdminUserError(c, err, "Failed to assign coach")
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// Videos lists every video with its author's name.
func (h *AdminHandler) Videos(c *gin.Context) {
	videos, err := h.adminService.GetAllVideos(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load videos")
		return
	}

	c.JSON(http.StatusOK, videos)
}
