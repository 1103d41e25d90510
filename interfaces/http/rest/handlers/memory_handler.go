// Package handlers maps HTTP routes onto the memory service.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"memory-backend/application/services"
	"memory-backend/domain"
	"memory-backend/pkg/auth"
	"memory-backend/pkg/common"
	pkgerrors "memory-backend/pkg/errors"
	"memory-backend/pkg/utils"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// MemoryHandler handles memory-related HTTP requests
type MemoryHandler struct {
	service *services.MemoryService
	logger  *zap.Logger
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(service *services.MemoryService, logger *zap.Logger) *MemoryHandler {
	return &MemoryHandler{service: service, logger: logger}
}

// CreateMemoryRequest represents the request body for creating a memory
type CreateMemoryRequest struct {
	Content string `json:"content" validate:"required"`
}

// UpdateMemoryRequest represents the request body for updating a memory.
// At least one field must be present.
type UpdateMemoryRequest struct {
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// Search handles GET /memories with optional limit, tag and keyword filters
func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := domain.SearchQuery{
		UserID:  auth.UserIDFromContext(r.Context()),
		Tag:     r.URL.Query().Get("tag"),
		Keyword: r.URL.Query().Get("keyword"),
	}

	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit <= 0 {
			common.RespondError(w, http.StatusBadRequest, "Invalid limit parameter. Must be a positive number.")
			return
		}
		query.Limit = limit
	}

	memories, err := h.service.SearchMemories(r.Context(), query)
	if err != nil {
		h.respondError(w, err, "Failed to search memories")
		return
	}
	if memories == nil {
		memories = []domain.Memory{}
	}

	common.RespondJSON(w, http.StatusOK, memories)
}

// Create handles POST /memories
func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMemoryRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	memory, err := h.service.CreateMemory(r.Context(), auth.UserIDFromContext(r.Context()), req.Content)
	if err != nil {
		h.respondError(w, err, "Failed to create memory")
		return
	}

	common.RespondJSON(w, http.StatusCreated, common.MessageResponse{
		Message: "Memory created successfully",
		Data:    memory,
	})
}

// GetByID handles GET /memories/{memoryID}
func (h *MemoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	memoryID, userID, ok := h.scopedID(w, r)
	if !ok {
		return
	}

	memory, err := h.service.GetMemory(r.Context(), memoryID, userID)
	if err != nil {
		h.respondError(w, err, "Failed to retrieve memory")
		return
	}

	common.RespondJSON(w, http.StatusOK, memory)
}

// Update handles PUT /memories/{memoryID}
func (h *MemoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	memoryID, userID, ok := h.scopedID(w, r)
	if !ok {
		return
	}

	var req UpdateMemoryRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	memory, err := h.service.UpdateMemory(r.Context(), memoryID, userID, domain.MemoryUpdate{
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		h.respondError(w, err, "Failed to update memory")
		return
	}

	common.RespondJSON(w, http.StatusOK, common.MessageResponse{
		Message: "Memory updated successfully",
		Data:    memory,
	})
}

// Delete handles DELETE /memories/{memoryID}
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	memoryID, userID, ok := h.scopedID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteMemory(r.Context(), memoryID, userID); err != nil {
		h.respondError(w, err, "Failed to delete memory")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// scopedID extracts the path id and the authenticated user. By-id routes
// are only mounted behind the auth gate, so a missing user is rejected.
// A syntactically invalid id is reported as not found, the same as an id
// that exists but is owned by someone else.
func (h *MemoryHandler) scopedID(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return "", "", false
	}

	memoryID := chi.URLParam(r, "memoryID")
	if _, err := uuid.Parse(memoryID); err != nil {
		common.RespondError(w, http.StatusNotFound, "Memory not found")
		return "", "", false
	}
	return memoryID, user.UserID, true
}

// respondError maps a service error to its HTTP status. Messages from
// AppErrors are passed through; anything else gets the fallback.
func (h *MemoryHandler) respondError(w http.ResponseWriter, err error, fallback string) {
	status := pkgerrors.HTTPStatus(err)
	message := pkgerrors.UserMessage(err)
	if message == "Internal server error" {
		message = fallback
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(fallback, zap.Error(err))
	}
	common.RespondError(w, status, message)
}
