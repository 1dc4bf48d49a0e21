package api

import (
	"errors"
	"fmt"
	"imtfit/coaching-app/internal/service"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Photo proof upload limits.
const maxPhotoSize = 5 * 1024 * 1024 // 5 MB

var allowedPhotoExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedPhotoMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ClientHandler holds the client-facing service dependencies.
type ClientHandler struct {
	clientService service.ClientService
	imtService    service.IMTService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService service.ClientService, imtService service.IMTService) *ClientHandler {
	return &ClientHandler{clientService: clientService, imtService: imtService}
}

// --- Request Structs ---

type RecordIMTRequest struct {
	Weight float64 `json:"weight" binding:"required,gt=0"` // kg
	Height float64 `json:"height" binding:"required,gt=0"` // cm
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// --- Helpers ---

// clientIDFromContext converts the authenticated user's hex ID back to
// an ObjectID. The auth middleware guarantees the value is present.
func clientIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
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

// photoFromForm validates the uploaded file and opens it for streaming.
// The caller owns closing the returned file.
func photoFromForm(c *gin.Context, field string) (*service.ProofUpload, multipart.File, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "A photo file is required")
		return nil, nil, false
	}

	if fileHeader.Size > maxPhotoSize {
		abortWithError(c, http.StatusBadRequest, "Photo must be 5 MB or smaller")
		return nil, nil, false
	}

	ext := strings.ToLower(path.Ext(fileHeader.Filename))
	if !allowedPhotoExtensions[ext] {
		abortWithError(c, http.StatusBadRequest, "Photo must be a jpeg, jpg, png, gif or webp file")
		return nil, nil, false
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedPhotoMIMETypes[contentType] {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Unsupported photo content type: %s", contentType))
		return nil, nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to read uploaded photo")
		return nil, nil, false
	}

	return &service.ProofUpload{
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Body:        file,
	}, file, true
}

// --- Handler Methods ---

// Dashboard returns the client landing view.
func (h *ClientHandler) Dashboard(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	dashboard, err := h.clientService.Dashboard(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load dashboard")
		}
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// RecordIMT stores a new weight/height measurement.
func (h *ClientHandler) RecordIMT(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	var req RecordIMTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	record, err := h.imtService.RecordSnapshot(c.Request.Context(), clientID, req.Weight, req.Height)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMeasurement) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to record measurement")
		}
		return
	}

	c.JSON(http.StatusCreated, record)
}

// CurrentIMT returns the latest snapshot, derived from cached
// measurements when no history exists yet.
func (h *ClientHandler) CurrentIMT(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	record, err := h.imtService.CurrentSnapshot(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, service.ErrNoMeasurements) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load measurement")
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// IMTHistory returns recent measurements, newest first.
func (h *ClientHandler) IMTHistory(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	history, err := h.imtService.History(c.Request.Context(), clientID, 0)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load history")
		return
	}

	c.JSON(http.StatusOK, history)
}

// Schedule returns the calendar plus the proof feed.
func (h *ClientHandler) Schedule(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	overview, err := h.clientService.ScheduleOverview(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load schedule")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// MarkWorkoutDone accepts a multipart photo proof and completes today's
// scheduled workout when one exists.
func (h *ClientHandler) MarkWorkoutDone(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	upload, file, ok := photoFromForm(c, "photo")
	if !ok {
		return
	}
	defer file.Close()

	notes := c.PostForm("notes")

	proof, err := h.clientService.MarkWorkoutDone(c.Request.Context(), clientID, upload, notes)
	if err != nil {
		if errors.Is(err, service.ErrPhotoRequired) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, service.ErrPhotoStorage) {
			abortWithError(c, http.StatusInternalServerError, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to record workout")
		}
		return
	}

	c.JSON(http.StatusCreated, proof)
}

// AddProgressPhoto accepts a multipart photo for the progress feed.
func (h *ClientHandler) AddProgressPhoto(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	upload, file, ok := photoFromForm(c, "photo")
	if !ok {
		return
	}
	defer file.Close()

	notes := c.PostForm("notes")

	proof, err := h.clientService.AddProgressPhoto(c.Request.Context(), clientID, upload, notes)
	if err != nil {
		if errors.Is(err, service.ErrPhotoRequired) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, service.ErrPhotoStorage) {
			abortWithError(c, http.StatusInternalServerError, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to save progress photo")
		}
		return
	}

	c.JSON(http.StatusCreated, proof)
}

// Progress lists the proof feed with temporary image URLs.
func (h *ClientHandler) Progress(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	proofs, err := h.clientService.Progress(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load progress")
		return
	}

	c.JSON(http.StatusOK, proofs)
}

// Videos lists content from the client's coach and category.
func (h *ClientHandler) Videos(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	videos, err := h.clientService.Videos(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load videos")
		}
		return
	}

	c.JSON(http.StatusOK, videos)
}

// Messages returns the conversation with the coach and marks the
// coach's messages read.
func (h *ClientHandler) Messages(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	messages, err := h.clientService.Messages(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load messages")
		}
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage sends a message to the client's coach.
func (h *ClientHandler) SendMessage(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	message, err := h.clientService.SendMessage(c.Request.Context(), clientID, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrNoCoachAssigned) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to send message")
		}
		return
	}

	c.JSON(http.StatusCreated, message)
}

// Recommendations lists coach-authored exercise advice.
func (h *ClientHandler) Recommendations(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	recs, err := h.clientService.Recommendations(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load recommendations")
		return
	}

	c.JSON(http.StatusOK, recs)
}

// FoodRecommendations lists coach-authored nutrition advice.
func (h *ClientHandler) FoodRecommendations(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	recs, err := h.clientService.FoodRecommendations(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load food recommendations")
		return
	}

	c.JSON(http.StatusOK, recs)
}
