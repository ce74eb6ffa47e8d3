package club

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/stepclub/internal/model"
)

// --- モック ---

type mockClubRepo struct {
	findByIDFn        func(ctx context.Context, id string) (*model.Club, error)
	listFn            func(ctx context.Context) ([]model.ClubWithMembers, error)
	countMembersFn    func(ctx context.Context, clubID string) (int, error)
	pointsSinceFn     func(ctx context.Context, clubID string, since time.Time) (int64, error)
	topContributorsFn func(ctx context.Context, clubID string, limit int) ([]model.Contributor, error)
}

func (m *mockClubRepo) FindByID(ctx context.Context, id string) (*model.Club, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockClubRepo) List(ctx context.Context) ([]model.ClubWithMembers, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockClubRepo) CountMembers(ctx context.Context, clubID string) (int, error) {
	if m.countMembersFn != nil {
		return m.countMembersFn(ctx, clubID)
	}
	return 0, nil
}
func (m *mockClubRepo) PointsSince(ctx context.Context, clubID string, since time.Time) (int64, error) {
	if m.pointsSinceFn != nil {
		return m.pointsSinceFn(ctx, clubID, since)
	}
	return 0, nil
}
func (m *mockClubRepo) TopContributors(ctx context.Context, clubID string, limit int) ([]model.Contributor, error) {
	if m.topContributorsFn != nil {
		return m.topContributorsFn(ctx, clubID, limit)
	}
	return nil, nil
}

func kobe() *mockClubRepo {
	return &mockClubRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Club, error) {
			if id != "vissel-kobe" {
				return nil, nil
			}
			return &model.Club{ID: id, Name: "ヴィッセル神戸", TotalPoints: 5000}, nil
		},
		countMembersFn: func(ctx context.Context, clubID string) (int, error) { return 3, nil },
	}
}

// --- テスト ---

func TestService_List_EmptyIsNotNil(t *testing.T) {
	svc := NewService(&mockClubRepo{})

	clubs, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if clubs == nil || len(clubs) != 0 {
		t.Errorf("clubs = %v, want empty slice", clubs)
	}
}

func TestService_List_Error(t *testing.T) {
	cause := errors.New("db down")
	svc := NewService(&mockClubRepo{
		listFn: func(ctx context.Context) ([]model.ClubWithMembers, error) { return nil, cause },
	})

	if _, err := svc.List(context.Background()); !errors.Is(err, cause) {
		t.Errorf("err = %v, want wrapped %v", err, cause)
	}
}

func TestService_Get(t *testing.T) {
	svc := NewService(kobe())

	club, err := svc.Get(context.Background(), "vissel-kobe")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if club.Name != "ヴィッセル神戸" || club.ActiveMembers != 3 {
		t.Errorf("club = %+v", club)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(kobe())

	_, err := svc.Get(context.Background(), "unknown")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeClubNotFound {
		t.Errorf("err = %v, want CLUB_NOT_FOUND", err)
	}
}

func TestService_Stats(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := kobe()
	repo.pointsSinceFn = func(ctx context.Context, clubID string, since time.Time) (int64, error) {
		switch now.Sub(since) {
		case WeeklyWindow:
			return 70, nil
		case MonthlyWindow:
			return 300, nil
		}
		t.Errorf("unexpected since: %v", since)
		return 0, nil
	}
	var gotLimit int
	repo.topContributorsFn = func(ctx context.Context, clubID string, limit int) ([]model.Contributor, error) {
		gotLimit = limit
		return []model.Contributor{{UserID: "u1", Nickname: "Walker", Points: 200}}, nil
	}
	svc := NewService(repo)
	svc.Now = func() time.Time { return now }

	stats, err := svc.Stats(context.Background(), "vissel-kobe")
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.WeeklyPoints != 70 || stats.MonthlyPoints != 300 {
		t.Errorf("weekly=%d monthly=%d", stats.WeeklyPoints, stats.MonthlyPoints)
	}
	if gotLimit != TopContributorLimit {
		t.Errorf("limit = %d, want %d", gotLimit, TopContributorLimit)
	}
	if len(stats.TopContributors) != 1 || stats.TopContributors[0].Points != 200 {
		t.Errorf("TopContributors = %+v", stats.TopContributors)
	}
	if stats.ActiveMembers != 3 || stats.TotalPoints != 5000 {
		t.Errorf("club = %+v", stats.ClubWithMembers)
	}
}

func TestService_Stats_NoContributors(t *testing.T) {
	svc := NewService(kobe())

	stats, err := svc.Stats(context.Background(), "vissel-kobe")
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.TopContributors == nil {
		t.Error("TopContributors should be an empty slice, not nil")
	}
}

func TestService_Stats_NotFound(t *testing.T) {
	svc := NewService(kobe())

	_, err := svc.Stats(context.Background(), "unknown")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsNotFound() {
		t.Errorf("err = %v, want not found", err)
	}
}
