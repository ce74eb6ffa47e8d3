package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/stepclub/internal/middleware"
	"github.com/hitoshi/stepclub/internal/model"
	"github.com/hitoshi/stepclub/internal/step"
)

// StepServiceInterface は歩数ハンドラーが必要とするサービスインターフェース。
type StepServiceInterface interface {
	// SyncSteps は1日分の歩数を記録し、ポイントをユーザーとクラブに加算する。
	SyncSteps(ctx context.Context, in step.SyncInput) (*step.SyncResult, error)
	// History は直近days件の歩数記録を新しい順に返す。
	History(ctx context.Context, userID string, days int) ([]*model.StepLog, error)
	// Stats は歩数の集計統計を返す。
	Stats(ctx context.Context, userID string) (*step.Stats, error)
}

// StepHandler は歩数同期と統計のHTTPハンドラー。
type StepHandler struct {
	service StepServiceInterface
}

// NewStepHandler はStepHandlerを生成する。
func NewStepHandler(service StepServiceInterface) *StepHandler {
	return &StepHandler{service: service}
}

// syncRequest は歩数同期リクエストのボディ。
type syncRequest struct {
	Steps           *int   `json:"steps"`
	Date            string `json:"date"`
	Source          string `json:"source"`
	DeviceSignature string `json:"device_signature"`
}

// syncResponse は歩数同期のAPIレスポンス。
type syncResponse struct {
	PointsEarned      int       `json:"points_earned"`
	TotalPoints       int64     `json:"total_points"`
	ClubContribution  string    `json:"club_contribution"`
	IsVerified        bool      `json:"is_verified"`
	IsDuplicate       bool      `json:"is_duplicate"`
	BonusPreview      int       `json:"bonus_preview"`
	StepsForNextPoint int       `json:"steps_for_next_point"`
	SyncedAt          time.Time `json:"synced_at"`
}

type historyItem struct {
	Date      string    `json:"date"`
	Steps     int       `json:"steps"`
	Points    int       `json:"points"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

type historyResponse struct {
	UserID       string        `json:"user_id"`
	TotalRecords int           `json:"total_records"`
	History      []historyItem `json:"history"`
}

type statsResponse struct {
	UserID            string  `json:"user_id"`
	TotalSteps        int64   `json:"total_steps"`
	TotalPoints       int64   `json:"total_points"`
	AverageDailySteps float64 `json:"average_daily_steps"`
	MaxDailySteps     int     `json:"max_daily_steps"`
	ActiveDays        int     `json:"active_days"`
	CurrentStreak     int     `json:"current_streak"`
	LongestStreak     int     `json:"longest_streak"`
}

// Sync は歩数を同期する。
// POST /api/steps/sync
func (h *StepHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req syncRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Steps == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("steps is required"))
		return
	}

	result, err := h.service.SyncSteps(r.Context(), step.SyncInput{
		UserID:          userID,
		Steps:           *req.Steps,
		Date:            req.Date,
		Source:          req.Source,
		DeviceSignature: req.DeviceSignature,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.IsDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, syncResponse{
		PointsEarned:      result.PointsEarned,
		TotalPoints:       result.TotalPoints,
		ClubContribution:  result.ClubContribution,
		IsVerified:        result.IsVerified,
		IsDuplicate:       result.IsDuplicate,
		BonusPreview:      result.BonusPreview,
		StepsForNextPoint: result.StepsForNextPoint,
		SyncedAt:          result.SyncedAt,
	})
}

// History は歩数履歴を返す。
// GET /api/steps/history?days=30
func (h *StepHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	days := step.DefaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidDaysError(0, step.MaxHistoryDays))
			return
		}
		days = n
	}

	logs, err := h.service.History(r.Context(), userID, days)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	items := make([]historyItem, len(logs))
	for i, log := range logs {
		items[i] = historyItem{
			Date:      log.Date.Format(step.DateLayout),
			Steps:     log.Steps,
			Points:    log.Points,
			Source:    string(log.Source),
			CreatedAt: log.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, historyResponse{
		UserID:       userID,
		TotalRecords: len(items),
		History:      items,
	})
}

// Stats は歩数の集計統計を返す。
// GET /api/steps/stats
func (h *StepHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		UserID:            stats.UserID,
		TotalSteps:        stats.TotalSteps,
		TotalPoints:       stats.TotalPoints,
		AverageDailySteps: stats.AverageDailySteps,
		MaxDailySteps:     stats.MaxDailySteps,
		ActiveDays:        stats.ActiveDays,
		CurrentStreak:     stats.CurrentStreak,
		LongestStreak:     stats.LongestStreak,
	})
}

// SetupStepRoutes は歩数関連のルーティングを設定したchi.Routerを返す。
// syncMiddleware が nil でない場合、POST /api/steps/sync に同期専用レート制限を適用する。
func SetupStepRoutes(service StepServiceInterface, syncMiddleware func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	h := NewStepHandler(service)

	r.Route("/api/steps", func(r chi.Router) {
		if syncMiddleware != nil {
			r.With(syncMiddleware).Post("/sync", h.Sync)
		} else {
			r.Post("/sync", h.Sync)
		}
		r.Get("/history", h.History)
		r.Get("/stats", h.Stats)
	})

	return r
}
