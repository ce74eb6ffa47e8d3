package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/stepclub/internal/model"
)

// PostgresClubRepo はPostgreSQLを使用したクラブリポジトリ。
type PostgresClubRepo struct {
	db *sql.DB
}

// NewPostgresClubRepo はPostgresClubRepoを生成する。
func NewPostgresClubRepo(db *sql.DB) *PostgresClubRepo {
	return &PostgresClubRepo{db: db}
}

const clubColumns = `c.id, c.name, c.total_points, c.league_rank, c.founded_year, c.stadium, c.logo_url, c.created_at`

// scanClub はclubColumnsの順で1行を読み取る。
func scanClub(scanner interface{ Scan(...any) error }, club *model.Club, extra ...any) error {
	var rank, founded sql.NullInt64
	var stadium, logoURL sql.NullString

	dest := []any{&club.ID, &club.Name, &club.TotalPoints, &rank, &founded, &stadium, &logoURL, &club.CreatedAt}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	club.LeagueRank = int(rank.Int64)
	club.FoundedYear = int(founded.Int64)
	club.Stadium = stadium.String
	club.LogoURL = logoURL.String
	return nil
}

// FindByID は指定IDのクラブを取得する。見つからない場合はnilを返す。
func (r *PostgresClubRepo) FindByID(ctx context.Context, id string) (*model.Club, error) {
	club := &model.Club{}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clubColumns+` FROM clubs c WHERE c.id = $1`,
		id,
	)
	err := scanClub(row, club)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("クラブの取得に失敗しました: %w", err)
	}
	return club, nil
}

// List は全クラブを所属メンバー数付きで累計ポイントの降順に返す。
// 同点の場合はリーグ順位、クラブIDの順に並べる。
func (r *PostgresClubRepo) List(ctx context.Context) ([]model.ClubWithMembers, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clubColumns+`, COUNT(u.id)
		 FROM clubs c
		 LEFT JOIN users u ON u.club_id = c.id
		 GROUP BY c.id
		 ORDER BY c.total_points DESC, c.league_rank ASC NULLS LAST, c.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("クラブ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var clubs []model.ClubWithMembers
	for rows.Next() {
		var c model.ClubWithMembers
		if err := scanClub(rows, &c.Club, &c.ActiveMembers); err != nil {
			return nil, fmt.Errorf("クラブ行の読み取りに失敗しました: %w", err)
		}
		clubs = append(clubs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("クラブ一覧の走査に失敗しました: %w", err)
	}
	return clubs, nil
}

// CountMembers はクラブの所属ユーザー数を返す。
func (r *PostgresClubRepo) CountMembers(ctx context.Context, clubID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE club_id = $1`,
		clubID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("所属メンバー数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// PointsSince は指定日時以降にクラブへクレジットされたポイント合計を返す。
func (r *PostgresClubRepo) PointsSince(ctx context.Context, clubID string, since time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(points), 0)
		 FROM step_logs
		 WHERE credited_club_id = $1 AND club_credited_at >= $2`,
		clubID, since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("期間内ポイントの集計に失敗しました: %w", err)
	}
	return total, nil
}

// TopContributors はクラブへの貢献ポイント上位のユーザーを返す。
// 退会済みユーザーの記録はCASCADE削除されるため集計に含まれない。
func (r *PostgresClubRepo) TopContributors(ctx context.Context, clubID string, limit int) ([]model.Contributor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.nickname, SUM(sl.points) AS points
		 FROM step_logs sl
		 JOIN users u ON u.id = sl.user_id
		 WHERE sl.credited_club_id = $1 AND sl.club_credited_at IS NOT NULL
		 GROUP BY u.id, u.nickname
		 HAVING SUM(sl.points) > 0
		 ORDER BY points DESC, u.id ASC
		 LIMIT $2`,
		clubID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("貢献ユーザーの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var contributors []model.Contributor
	for rows.Next() {
		var c model.Contributor
		if err := rows.Scan(&c.UserID, &c.Nickname, &c.Points); err != nil {
			return nil, fmt.Errorf("貢献ユーザー行の読み取りに失敗しました: %w", err)
		}
		contributors = append(contributors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("貢献ユーザーの走査に失敗しました: %w", err)
	}
	return contributors, nil
}

// compile-time interface check
var _ ClubRepository = (*PostgresClubRepo)(nil)
