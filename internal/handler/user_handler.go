package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/stepclub/internal/model"
	"github.com/hitoshi/stepclub/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, in user.UpdateProfileInput) (*model.User, error)
	// Withdraw はユーザーの退会処理を実行する。
	// users、identities、step_logsを削除する。クラブの累計ポイントは残す。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。省略した項目は変更しない。
type updateProfileRequest struct {
	Nickname *string `json:"nickname"`
	ClubID   *string `json:"club_id"`
}

// profileResponse はプロフィールのAPIレスポンス。
type profileResponse struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Nickname    string    `json:"nickname"`
	ClubID      string    `json:"club_id"`
	TotalPoints int64     `json:"total_points"`
	TotalSteps  int64     `json:"total_steps"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Me はログインユーザーのプロフィールを返す。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(u))
}

// UpdateMe はニックネームと所属クラブを更新する。
// PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, user.UpdateProfileInput{
		Nickname: req.Nickname,
		ClubID:   req.ClubID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(u))
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetupUserRoutes はユーザー管理関連のルーティングを設定したchi.Routerを返す。
func SetupUserRoutes(service UserServiceInterface) http.Handler {
	r := chi.NewRouter()
	h := NewUserHandler(service)

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/me", h.Me)
		r.Patch("/me", h.UpdateMe)
		r.Delete("/me", h.Withdraw)
	})

	return r
}

func toProfileResponse(u *model.User) profileResponse {
	return profileResponse{
		UserID:      u.ID,
		Email:       u.Email,
		Nickname:    u.Nickname,
		ClubID:      u.ClubID,
		TotalPoints: u.TotalPoints,
		TotalSteps:  u.TotalSteps,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
