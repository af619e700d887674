/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the internal domain
  model from the external contract. DTOs are pure data carriers;
  validation happens in handlers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/focusbridge/reward-engine/achievement"
	"github.com/focusbridge/reward-engine/wallet"
)

// =============================================================================
// ACHIEVEMENTS
// =============================================================================

// AchievementDTO represents one catalog definition.
type AchievementDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      int64  `json:"reward"`
	Recurrence  string `json:"recurrence"`
}

// StatusDTO represents one user's standing on an achievement.
type StatusDTO struct {
	Claimable    bool `json:"claimable"`
	ClaimedToday bool `json:"claimed_today"`
	Unlocked     bool `json:"unlocked"`
}

// AchievementStatusDTO pairs a definition with a user's status.
type AchievementStatusDTO struct {
	AchievementDTO
	Status StatusDTO `json:"status"`
}

// ClaimResponseDTO is the successful claim outcome.
type ClaimResponseDTO struct {
	Granted    bool      `json:"granted"`
	ID         string    `json:"id"`
	Amount     int64     `json:"amount"`
	NewBalance int64     `json:"new_balance"`
	Status     StatusDTO `json:"status"`
}

// =============================================================================
// WALLET
// =============================================================================

// BalanceDTO is a user's current coin balance.
type BalanceDTO struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// TransactionDTO is one ledger entry.
type TransactionDTO struct {
	ID        string `json:"id"`
	Delta     int64  `json:"delta"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
}

// RedeemRequest spends coins on a reward item.
type RedeemRequest struct {
	ItemID   string `json:"item_id"`
	Cost     int64  `json:"cost"`     // coins per item
	Quantity int    `json:"quantity"` // defaults to 1
}

// =============================================================================
// ACTIVITY FACTS
// =============================================================================

// RecordDiaryRequest records a diary entry fact. CreatedAt defaults to
// the server's current time when omitted.
type RecordDiaryRequest struct {
	CreatedAt string `json:"created_at,omitempty"` // RFC3339
}

// RecordTodoRequest records a to-do completion fact. Date defaults to
// today when omitted.
type RecordTodoRequest struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAchievementDTO(d achievement.Definition) AchievementDTO {
	return AchievementDTO{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Reward:      d.Reward.Int64(),
		Recurrence:  string(d.Recurrence),
	}
}

func toStatusDTO(s achievement.Status) StatusDTO {
	return StatusDTO{
		Claimable:    s.Claimable,
		ClaimedToday: s.ClaimedToday,
		Unlocked:     s.Unlocked,
	}
}

func toTransactionDTO(tx wallet.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:        string(tx.ID),
		Delta:     tx.Delta.Int64(),
		Type:      string(tx.Type),
		Reason:    tx.Reason,
		Balance:   tx.Balance.Int64(),
		CreatedAt: tx.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTOs(txs []wallet.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}
