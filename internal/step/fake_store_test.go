package step

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/stepclub/internal/model"
	"github.com/hitoshi/stepclub/internal/repository"
)

// --- モック ---

// fakeStore はStepLogRepositoryとユーザー・クラブ取得を兼ねるインメモリ実装。
// 実DBと同じく(user, date)の一意性と、記録ごとに一度だけのクレジット適用を守る。
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	clubs map[string]*model.Club
	logs  map[string]*model.StepLog
	byKey map[string]string

	calls int

	findErr       error
	creditUserErr error
	creditClubErr error
	// createHook がtrueを返すと挿入せずに競合扱いにする
	createHook func(log *model.StepLog) bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*model.User),
		clubs: make(map[string]*model.Club),
		logs:  make(map[string]*model.StepLog),
		byKey: make(map[string]string),
	}
}

func (f *fakeStore) addUser(id, clubID string, totalPoints int64) {
	f.users[id] = &model.User{ID: id, Email: id + "@example.com", Nickname: id, ClubID: clubID, TotalPoints: totalPoints}
}

func (f *fakeStore) addClub(id string, totalPoints int64) {
	f.clubs[id] = &model.Club{ID: id, Name: id, TotalPoints: totalPoints}
}

func (f *fakeStore) addLog(userID string, date time.Time, steps int) *model.StepLog {
	log := &model.StepLog{
		ID:        userID + "-" + date.Format(DateLayout),
		UserID:    userID,
		Date:      date,
		Steps:     steps,
		Points:    steps / DefaultStepsPerPoint,
		Source:    model.StepSourceHealthKit,
		CreatedAt: date,
	}
	f.logs[log.ID] = log
	f.byKey[key(userID, date)] = log.ID
	return log
}

func key(userID string, date time.Time) string {
	return userID + "|" + date.Format(DateLayout)
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeStore) userTotal(id string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id].TotalPoints
}

func (f *fakeStore) clubTotal(id string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clubs[id].TotalPoints
}

func (f *fakeStore) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.StepLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	id, ok := f.byKey[key(userID, date)]
	if !ok {
		return nil, nil
	}
	cp := *f.logs[id]
	return &cp, nil
}

func (f *fakeStore) Create(ctx context.Context, log *model.StepLog) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createHook != nil && f.createHook(log) {
		return false, nil
	}
	if _, ok := f.users[log.UserID]; !ok {
		return false, repository.ErrUserNotFound
	}
	if _, ok := f.byKey[key(log.UserID, log.Date)]; ok {
		return false, nil
	}
	log.CreatedAt = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	cp := *log
	f.logs[log.ID] = &cp
	f.byKey[key(log.UserID, log.Date)] = log.ID
	return true, nil
}

func (f *fakeStore) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*model.StepLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []*model.StepLog
	for _, l := range f.logs {
		if l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CreditUser(ctx context.Context, logID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.creditUserErr != nil {
		return false, f.creditUserErr
	}
	log, ok := f.logs[logID]
	if !ok || log.UserCreditedAt != nil {
		return false, nil
	}
	user, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	now := time.Now()
	log.UserCreditedAt = &now
	user.TotalPoints += int64(log.Points)
	user.TotalSteps += int64(log.Steps)
	return true, nil
}

func (f *fakeStore) CreditClub(ctx context.Context, logID, clubID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.creditClubErr != nil {
		return false, f.creditClubErr
	}
	club, ok := f.clubs[clubID]
	if !ok {
		return false, repository.ErrClubNotFound
	}
	log, ok := f.logs[logID]
	if !ok || log.ClubCreditedAt != nil {
		return false, nil
	}
	now := time.Now()
	log.ClubCreditedAt = &now
	log.CreditedClubID = clubID
	club.TotalPoints += int64(log.Points)
	return true, nil
}

func (f *fakeStore) SettleClubCredit(ctx context.Context, logID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if log, ok := f.logs[logID]; ok && log.ClubCreditedAt == nil {
		now := time.Now()
		log.ClubCreditedAt = &now
	}
	return nil
}

func (f *fakeStore) ListPendingCredits(ctx context.Context, olderThan time.Time, limit int) ([]*model.PendingCredit, error) {
	return nil, nil
}

// fakeUsers はfakeStoreをUserFinderとして公開する。
type fakeUsers struct{ s *fakeStore }

func (u fakeUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	u.s.calls++
	user, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

// fakeClubs はfakeStoreをClubFinderとして公開する。
type fakeClubs struct{ s *fakeStore }

func (c fakeClubs) FindByID(ctx context.Context, id string) (*model.Club, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.calls++
	club, ok := c.s.clubs[id]
	if !ok {
		return nil, nil
	}
	cp := *club
	return &cp, nil
}

// recordingMetrics は同期結果ラベルを記録するMetricsCollector。
type recordingMetrics struct {
	mu        sync.Mutex
	results   map[string]int
	points    int
	latencies []time.Duration
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{results: make(map[string]int)}
}

func (m *recordingMetrics) RecordSync(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result]++
}
func (m *recordingMetrics) RecordPointsCredited(points int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points += points
}
func (m *recordingMetrics) RecordSyncLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, d)
}
func (m *recordingMetrics) RecordCreditsReconciled(string, int) {}
func (m *recordingMetrics) RecordHTTPStatus(int)                {}

var _ repository.StepLogRepository = (*fakeStore)(nil)
