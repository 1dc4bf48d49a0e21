package api

import (
	"errors"
	"fmt"
	"imtfit/coaching-app/internal/domain"
	"imtfit/coaching-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachHandler holds the coach service dependency.
type CoachHandler struct {
	coachService service.CoachService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

// --- Request Structs ---

type CreateScheduleRequest struct {
	ClientID string `json:"clientId" binding:"required"`
	Date     string `json:"date" binding:"required"` // "2006-01-02" or RFC 3339
	Title    string `json:"title"`
}

type SetScheduleCompletedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type CreateRecommendationRequest struct {
	ClientID    string   `json:"clientId" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Exercises   []string `json:"exercises"`
}

type CreateFoodRecommendationRequest struct {
	ClientID    string   `json:"clientId" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Foods       []string `json:"foods"`
	MealType    string   `json:"mealType" binding:"omitempty,oneof=breakfast lunch dinner snack"`
}

type VideoRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	VideoURL    string          `json:"videoUrl" binding:"required,url"`
	Category    domain.Category `json:"category" binding:"required,oneof=underweight normal overweight obese"`
}

// --- Helpers ---

func coachIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Invalid user ID in token")
		return primitive.NilObjectID, false
	}
	return id, true
}

// objectIDParam parses a path parameter as an ObjectID.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseScheduleDate accepts a bare date or a full timestamp.
func parseScheduleDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// mapCoachClientError translates ownership errors to HTTP statuses.
func mapCoachClientError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrClientNotAssigned):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

// --- Handler Methods ---

// Dashboard returns the coach landing view.
func (h *CoachHandler) Dashboard(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	dashboard, err := h.coachService.Dashboard(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// Clients lists the coach's roster with latest IMT per client.
func (h *CoachHandler) Clients(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	clients, err := h.coachService.GetClients(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load clients")
		return
	}

	c.JSON(http.StatusOK, clients)
}

// ClientDetail returns the drill-down for one client.
func (h *CoachHandler) ClientDetail(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	detail, err := h.coachService.GetClientDetail(c.Request.Context(), coachID, clientID)
	if err != nil {
		mapCoachClientError(c, err, "Failed to load client detail")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Schedules lists every client's calendar.
func (h *CoachHandler) Schedules(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	schedules, err := h.coachService.GetSchedules(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load schedules")
		return
	}

	c.JSON(http.StatusOK, schedules)
}

// CreateSchedule plans a training day for a client.
func (h *CoachHandler) CreateSchedule(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId format")
		return
	}

	date, err := parseScheduleDate(req.Date)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	schedule, err := h.coachService.CreateSchedule(c.Request.Context(), coachID, clientID, date, req.Title)
	if err != nil {
		if errors.Is(err, service.ErrScheduleDateTaken) {
			abortWithError(c, http.StatusConflict, err.Error())
			return
		}
		mapCoachClientError(c, err, "Failed to create schedule")
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// SetScheduleCompleted toggles a schedule's completed flag.
func (h *CoachHandler) SetScheduleCompleted(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	scheduleID, ok := objectIDParam(c, "scheduleId")
	if !ok {
		return
	}

	var req SetScheduleCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	schedule, err := h.coachService.SetScheduleCompleted(c.Request.Context(), coachID, scheduleID, *req.Completed)
	if err != nil {
		if errors.Is(err, service.ErrScheduleNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		mapCoachClientError(c, err, "Failed to update schedule")
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// DeleteSchedule removes a planned training day.
func (h *CoachHandler) DeleteSchedule(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	scheduleID, ok := objectIDParam(c, "scheduleId")
	if !ok {
		return
	}

	if err := h.coachService.DeleteSchedule(c.Request.Context(), coachID, scheduleID); err != nil {
		if errors.Is(err, service.ErrScheduleNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		mapCoachClientError(c, err, "Failed to delete schedule")
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateRecommendation authors exercise advice for a client.
func (h *CoachHandler) CreateRecommendation(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	var req CreateRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId format")
		return
	}

	rec, err := h.coachService.CreateRecommendation(c.Request.Context(), coachID, clientID, req.Title, req.Description, req.Exercises)
	if err != nil {
		mapCoachClientError(c, err, "Failed to create recommendation")
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// DeleteRecommendation removes exercise advice the coach authored.
func (h *CoachHandler) DeleteRecommendation(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	recID, ok := objectIDParam(c, "recommendationId")
	if !ok {
		return
	}

	if err := h.coachService.DeleteRecommendation(c.Request.Context(), coachID, recID); err != nil {
		if errors.Is(err, service.ErrRecommendationNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to delete recommendation")
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateFoodRecommendation authors nutrition advice for a client.
func (h *CoachHandler) CreateFoodRecommendation(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	var req CreateFoodRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId format")
		return
	}

	rec, err := h.coachService.CreateFoodRecommendation(c.Request.Context(), coachID, clientID, req.Title, req.Description, req.MealType, req.Foods)
	if err != nil {
		mapCoachClientError(c, err, "Failed to create food recommendation")
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// DeleteFoodRecommendation removes nutrition advice the coach authored.
func (h *CoachHandler) DeleteFoodRecommendation(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	recID, ok := objectIDParam(c, "recommendationId")
	if !ok {
		return
	}

	if err := h.coachService.DeleteFoodRecommendation(c.Request.Context(), coachID, recID); err != nil {
		if errors.Is(err, service.ErrRecommendationNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to delete food recommendation")
		return
	}

	c.Status(http.StatusNoContent)
}

// Videos lists the coach's own video library.
func (h *CoachHandler) Videos(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	videos, err := h.coachService.GetVideos(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load videos")
		return
	}

	c.JSON(http.StatusOK, videos)
}

// CreateVideo publishes a new exercise video.
func (h *CoachHandler) CreateVideo(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	video, err := h.coachService.CreateVideo(c.Request.Context(), coachID, req.Title, req.Description, req.VideoURL, req.Category)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create video")
		return
	}

	c.JSON(http.StatusCreated, video)
}

// UpdateVideo replaces a video's metadata.
func (h *CoachHandler) UpdateVideo(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	videoID, ok := objectIDParam(c, "videoId")
	if !ok {
		return
	}

	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	video, err := h.coachService.UpdateVideo(c.Request.Context(), coachID, videoID, req.Title, req.Description, req.VideoURL, req.Category)
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrVideoNotOwned) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update video")
		}
		return
	}

	c.JSON(http.StatusOK, video)
}

// DeleteVideo removes a video from the coach's library.
func (h *CoachHandler) DeleteVideo(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	videoID, ok := objectIDParam(c, "videoId")
	if !ok {
		return
	}

	if err := h.coachService.DeleteVideo(c.Request.Context(), coachID, videoID); err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to delete video")
		return
	}

	c.Status(http.StatusNoContent)
}

// ChatList shows per-client unread counts and last messages.
func (h *CoachHandler) ChatList(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	chats, err := h.coachService.ChatList(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load chats")
		return
	}

	c.JSON(http.StatusOK, chats)
}

// Messages returns the conversation with one client and marks the
// client's messages read.
func (h *CoachHandler) Messages(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	messages, err := h.coachService.GetMessages(c.Request.Context(), coachID, clientID)
	if err != nil {
		mapCoachClientError(c, err, "Failed to load messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage sends a message to one of the coach's clients.
func (h *CoachHandler) SendMessage(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := objectIDParam(c, "clientId")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	message, err := h.coachService.SendMessage(c.Request.Context(), coachID, clientID, req.Content)
	if err != nil {
		mapCoachClientError(c, err, "Failed to send message")
		return
	}

	c.JSON(http.StatusCreated, message)
}
