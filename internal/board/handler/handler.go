package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fekuna/speakeasy-board-service/internal/auth"
	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/board/dto"
	"github.com/fekuna/speakeasy-board-service/internal/logger"
	"github.com/fekuna/speakeasy-board-service/internal/model"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Session is the identity source the API can drive. *auth.Session fits.
type Session interface {
	CurrentUser() *auth.User
	SignIn(userID string)
	SignOut()
}

type BoardHandler struct {
	uc      board.UseCase
	session Session
	logger  logger.ZapLogger
}

func NewBoardHandler(uc board.UseCase, session Session, log logger.ZapLogger) *BoardHandler {
	return &BoardHandler{
		uc:      uc,
		session: session,
		logger:  log,
	}
}

// Register mounts the board API on r.
func (h *BoardHandler) Register(r *mux.Router) {
	r.HandleFunc("/board", h.GetBoard).Methods(http.MethodGet)
	r.HandleFunc("/board/reload", h.Reload).Methods(http.MethodPost)
	r.HandleFunc("/board/reset", h.Reset).Methods(http.MethodPost)

	r.HandleFunc("/session", h.SignIn).Methods(http.MethodPost)
	r.HandleFunc("/session", h.SignOut).Methods(http.MethodDelete)

	r.HandleFunc("/board/categories", h.CreateCategory).Methods(http.MethodPost)
	r.HandleFunc("/board/categories/order", h.ReorderCategories).Methods(http.MethodPut)
	r.HandleFunc("/board/categories/{key}", h.UpdateCategory).Methods(http.MethodPatch)
	r.HandleFunc("/board/categories/{key}", h.DeleteCategory).Methods(http.MethodDelete)

	r.HandleFunc("/board/categories/{key}/items", h.CreateItem).Methods(http.MethodPost)
	r.HandleFunc("/board/categories/{key}/items/order", h.ReorderItems).Methods(http.MethodPut)
	r.HandleFunc("/board/categories/{key}/items/{item}", h.UpdateItem).Methods(http.MethodPatch)
	r.HandleFunc("/board/categories/{key}/items/{item}", h.DeleteItem).Methods(http.MethodDelete)
	r.HandleFunc("/board/categories/{key}/items/{item}/phrase", h.GetPhrase).Methods(http.MethodGet)
}

func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	h.writeBoard(w, http.StatusOK)
}

// Reload answers with the board even when the backend failed; the body then
// carries status "error" and the fallback board.
func (h *BoardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Load(r.Context()); err != nil {
		h.logger.Warn("board reload failed", zap.Error(err))
	}
	h.writeBoard(w, http.StatusOK)
}

func (h *BoardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.ResetToDefaults(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeBoard(w, http.StatusOK)
}

// SignIn takes the user from the body, or from the identity header. When the
// header is present the body may only name the same user.
func (h *BoardHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}
	caller := auth.GetUserID(r.Context())
	if caller != "" && req.UserID != "" && req.UserID != caller {
		h.logger.Warn("session switch to another user refused",
			zap.String("caller", caller), zap.String("user_id", req.UserID))
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "user_id does not match the signed-in user"})
		return
	}
	if req.UserID == "" {
		req.UserID = caller
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "user_id is required"})
		return
	}
	h.session.SignIn(req.UserID)
	h.writeBoard(w, http.StatusOK)
}

func (h *BoardHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.session.SignOut()
	h.writeBoard(w, http.StatusOK)
}

func (h *BoardHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.uc.AddCategory(r.Context(), req.Input())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *BoardHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.uc.UpdateCategory(r.Context(), mux.Vars(r)["key"], req.Patch())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *BoardHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteCategory(r.Context(), mux.Vars(r)["key"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req dto.OrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.uc.ReorderCategories(r.Context(), req.Keys); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeBoard(w, http.StatusOK)
}

func (h *BoardHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	it, err := h.uc.AddItem(r.Context(), mux.Vars(r)["key"], req.Input())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *BoardHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	it, err := h.uc.UpdateItem(r.Context(), vars["key"], vars["item"], req.Patch())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *BoardHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.uc.DeleteItem(r.Context(), vars["key"], vars["item"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	var req dto.OrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.uc.ReorderItems(r.Context(), mux.Vars(r)["key"], req.Keys); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeBoard(w, http.StatusOK)
}

func (h *BoardHandler) GetPhrase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	phrase, err := h.uc.Phrase(vars["key"], vars["item"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PhraseResponse{Phrase: phrase})
}

func (h *BoardHandler) writeBoard(w http.ResponseWriter, status int) {
	writeJSON(w, status, BoardResponse(h.uc.Snapshot()))
}

// BoardResponse renders a snapshot for the API.
func BoardResponse(snap board.Snapshot) dto.BoardResponse {
	resp := dto.BoardResponse{
		Status:     string(snap.Status),
		Backend:    string(snap.Backend),
		UserID:     snap.UserID,
		Categories: snap.Hierarchy,
	}
	if resp.Categories == nil {
		resp.Categories = []model.Category{}
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	return resp
}

func (h *BoardHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (h *BoardHandler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("board request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

// StatusFor maps a board error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrDuplicateKey), errors.Is(err, board.ErrNotLoaded):
		return http.StatusConflict
	case errors.Is(err, board.ErrInvalidPermutation), errors.Is(err, board.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrAdapterUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
