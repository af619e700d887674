/*
handlers.go - HTTP handlers for the reward engine

PURPOSE:
  Exposes the achievement-claim engine via REST. Handlers parse input,
  delegate to the coordinator/ledger, and map domain errors to status
  codes. No business logic lives here.

ENDPOINTS:
  Achievements:
    GET  /api/achievements                            Catalog listing
    GET  /api/users/{id}/achievements                 Listing with status
    GET  /api/users/{id}/achievements/{achID}         Status of one
    POST /api/users/{id}/achievements/{achID}/claim   Claim a reward

  Wallet:
    GET  /api/users/{id}/wallet                       Current balance
    GET  /api/users/{id}/wallet/transactions          Ledger history
    POST /api/users/{id}/wallet/redeem                Spend coins

  Activity facts (recording surface for the surrounding app):
    POST /api/users/{id}/activity/diaries
    POST /api/users/{id}/activity/photos
    POST /api/users/{id}/activity/todos

ERROR MAPPING:
  404 not_found        Unknown achievement id
  409 already_claimed  Duplicate/raced claim (expected outcome)
  422 not_eligible     Condition not yet met
  422 insufficient_balance
  500 no_reward        Catalog misconfiguration (logged server-side)
  500 internal         Everything else

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/focusbridge/reward-engine/achievement"
	"github.com/focusbridge/reward-engine/wallet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// ActivityRecorder is the write side of the activity-fact store.
type ActivityRecorder interface {
	RecordDiaryEntry(ctx context.Context, userID wallet.UserID, createdAt time.Time) error
	RecordPhoto(ctx context.Context, userID wallet.UserID, uploadedAt time.Time) error
	RecordTodoCompletion(ctx context.Context, userID wallet.UserID, day wallet.Day, completedAt time.Time) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Coordinator *achievement.Coordinator
	Ledger      *wallet.Ledger
	Balances    *wallet.BalanceReader
	Recorder    ActivityRecorder
	Clock       wallet.Clock
	Log         zerolog.Logger
}

func NewHandler(
	coordinator *achievement.Coordinator,
	ledger *wallet.Ledger,
	balances *wallet.BalanceReader,
	recorder ActivityRecorder,
	clock wallet.Clock,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		Coordinator: coordinator,
		Ledger:      ledger,
		Balances:    balances,
		Recorder:    recorder,
		Clock:       clock,
		Log:         log,
	}
}

// =============================================================================
// ACHIEVEMENT HANDLERS
// =============================================================================

// ListAchievements returns the full catalog.
func (h *Handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	defs := h.Coordinator.List()
	dtos := make([]AchievementDTO, len(defs))
	for i, d := range defs {
		dtos[i] = toAchievementDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListUserAchievements returns the catalog with the user's status on
// each achievement.
func (h *Handler) ListUserAchievements(w http.ResponseWriter, r *http.Request) {
	userID := wallet.UserID(chi.URLParam(r, "id"))

	statuses, err := h.Coordinator.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]AchievementStatusDTO, len(statuses))
	for i, as := range statuses {
		dtos[i] = AchievementStatusDTO{
			AchievementDTO: toAchievementDTO(as.Definition),
			Status:         toStatusDTO(as.Status),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAchievementStatus returns the user's standing on one achievement.
func (h *Handler) GetAchievementStatus(w http.ResponseWriter, r *http.Request) {
	userID := wallet.UserID(chi.URLParam(r, "id"))
	achID := chi.URLParam(r, "achID")

	status, err := h.Coordinator.Status(r.Context(), userID, achID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTO(status))
}

// ClaimAchievement attempts to claim a reward.
func (h *Handler) ClaimAchievement(w http.ResponseWriter, r *http.Request) {
	userID := wallet.UserID(chi.URLParam(r, "id"))
	achID := chi.URLParam(r, "achID")

	result, err := h.Coordinator.Claim(r.Context(), userID, achID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ClaimResponseDTO{
		Granted:    true,
		ID:         result.AchievementID,
		Amount:     result.Amount.Int64(),
		NewBalance: result.NewBalance.Int64(),
		Status:     toStatusDTO(result.Status),
	})
}

// =============================================================================
// WALLET HANDLERS
// =============================================================================

// GetBalance returns the user's current balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := wallet.UserID(chi.URLParam(r, "id"))

	balance, err := h.Balances.Current(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to read balance")
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{
		UserID:  string(userID),
		Balance: balance.Int64(),
	})
}

// GetTransactions returns the user's full ledger history.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := wallet.UserID(chi.URLParam(r, "id"))

	txs, err := h.Balances.History(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to load transactions")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// Redeem spends coins on a reward item.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := wallet.UserID(chi.URLParam(r, "id"))

	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.ItemID == "" || req.Cost <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "item_id and a positive cost are required")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	total := wallet.NewAmount(req.Cost * int64(req.Quantity))
	reason := fmt.Sprintf("redeem:%s x%d", req.ItemID, req.Quantity)

	tx, err := h.Ledger.Debit(r.Context(), userID, total, reason)
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			writeError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "redemption failed")
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		UserID:  string(userID),
		Balance: tx.Balance.Int64(),
	})
}

// =============================================================================
// ACTIVITY FACT HANDLERS
// =============================================================================

// RecordDiary records a diary-entry fact.
func (h *Handler) RecordDiary(w http.ResponseWriter, r *http.Request) {
	userID := wallet.UserID(chi.URLParam(r, "id"))

	var req RecordDiaryRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
			return
		}
	}

	createdAt := h.Clock.Now()
	if req.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, req.CreatedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "created_at must be RFC3339")
			return
		}
		createdAt = t
	}

	if err := h.Recorder.RecordDiaryEntry(r.Context(), userID, createdAt); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to record diary entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordPhoto records a photo-upload fact.
func (h *Handler) RecordPhoto(w http.ResponseWriter, r *http.Request) {
	userID := wallet.UserID(chi.URLParam(r, "id"))

	if err := h.Recorder.RecordPhoto(r.Context(), userID, h.Clock.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to record photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordTodoDone records a to-do completion fact.
func (h *Handler) RecordTodoDone(w http.ResponseWriter, r *http.Request) {
	userID := wallet.UserID(chi.URLParam(r, "id"))

	var req RecordTodoRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
			return
		}
	}

	day := h.Clock.Today()
	if req.Date != "" {
		t, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD")
			return
		}
		day = wallet.NewDay(t.Year(), t.Month(), t.Day())
	}

	if err := h.Recorder.RecordTodoCompletion(r.Context(), userID, day, h.Clock.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to record todo completion")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeDomainError maps achievement errors to HTTP responses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, achievement.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "achievement not found")
	case errors.Is(err, achievement.ErrAlreadyClaimed):
		writeError(w, http.StatusConflict, "already_claimed", "reward already collected")
	case errors.Is(err, achievement.ErrNotEligible):
		writeError(w, http.StatusUnprocessableEntity, "not_eligible", "condition not yet met")
	case errors.Is(err, achievement.ErrNoReward):
		writeError(w, http.StatusInternalServerError, "no_reward", "achievement misconfigured")
	default:
		h.Log.Error().Err(err).Msg("claim flow failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
