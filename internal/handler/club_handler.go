package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/stepclub/internal/model"
)

// ClubServiceInterface はクラブハンドラーが必要とするサービスインターフェース。
type ClubServiceInterface interface {
	List(ctx context.Context) ([]model.ClubWithMembers, error)
	Get(ctx context.Context, clubID string) (*model.ClubWithMembers, error)
	Stats(ctx context.Context, clubID string) (*model.ClubStats, error)
}

// ClubHandler はクラブ参照のHTTPハンドラー。
type ClubHandler struct {
	service ClubServiceInterface
}

// NewClubHandler はClubHandlerを生成する。
func NewClubHandler(service ClubServiceInterface) *ClubHandler {
	return &ClubHandler{service: service}
}

// clubResponse はクラブ情報のAPIレスポンス。
type clubResponse struct {
	ClubID        string `json:"club_id"`
	Name          string `json:"name"`
	TotalPoints   int64  `json:"total_points"`
	ActiveMembers int    `json:"active_members"`
	LeagueRank    int    `json:"league_rank"`
	FoundedYear   int    `json:"founded_year"`
	Stadium       string `json:"stadium"`
	LogoURL       string `json:"logo_url,omitempty"`
}

type clubListResponse struct {
	TotalClubs int            `json:"total_clubs"`
	Clubs      []clubResponse `json:"clubs"`
}

type contributorResponse struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Points   int64  `json:"points"`
}

type clubStatsResponse struct {
	clubResponse
	WeeklyPoints    int64                 `json:"weekly_points"`
	MonthlyPoints   int64                 `json:"monthly_points"`
	TopContributors []contributorResponse `json:"top_contributors"`
}

// List はクラブ一覧を累計ポイントの降順で返す。
// GET /api/clubs
func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := clubListResponse{
		TotalClubs: len(clubs),
		Clubs:      make([]clubResponse, len(clubs)),
	}
	for i := range clubs {
		resp.Clubs[i] = toClubResponse(&clubs[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get はクラブ詳細を返す。
// GET /api/clubs/{id}
func (h *ClubHandler) Get(w http.ResponseWriter, r *http.Request) {
	club, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClubResponse(club))
}

// Stats はクラブの集計統計を返す。
// GET /api/clubs/{id}/stats
func (h *ClubHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	top := make([]contributorResponse, len(stats.TopContributors))
	for i, c := range stats.TopContributors {
		top[i] = contributorResponse{UserID: c.UserID, Nickname: c.Nickname, Points: c.Points}
	}

	writeJSON(w, http.StatusOK, clubStatsResponse{
		clubResponse:    toClubResponse(&stats.ClubWithMembers),
		WeeklyPoints:    stats.WeeklyPoints,
		MonthlyPoints:   stats.MonthlyPoints,
		TopContributors: top,
	})
}

func toClubResponse(c *model.ClubWithMembers) clubResponse {
	return clubResponse{
		ClubID:        c.ID,
		Name:          c.Name,
		TotalPoints:   c.TotalPoints,
		ActiveMembers: c.ActiveMembers,
		LeagueRank:    c.LeagueRank,
		FoundedYear:   c.FoundedYear,
		Stadium:       c.Stadium,
		LogoURL:       c.LogoURL,
	}
}
