package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/stepclub/internal/model"
)

// log_dateの受け渡しに使う日付形式。
// time.Timeのまま渡すとセッションのタイムゾーンで日付がずれるため文字列で渡す。
const dateLayout = "2006-01-02"

// PostgresStepLogRepo はPostgreSQLを使用した歩数記録リポジトリ。
type PostgresStepLogRepo struct {
	db *sql.DB
}

// NewPostgresStepLogRepo はPostgresStepLogRepoを生成する。
func NewPostgresStepLogRepo(db *sql.DB) *PostgresStepLogRepo {
	return &PostgresStepLogRepo{db: db}
}

const stepLogColumns = `id, user_id, log_date, steps, points, source, device_signature, created_at,
	user_credited_at, club_credited_at, credited_club_id`

func scanStepLog(scanner interface{ Scan(...any) error }) (*model.StepLog, error) {
	log := &model.StepLog{}
	var source string
	var userCreditedAt, clubCreditedAt sql.NullTime
	var creditedClubID sql.NullString

	err := scanner.Scan(
		&log.ID, &log.UserID, &log.Date, &log.Steps, &log.Points, &source, &log.DeviceSignature, &log.CreatedAt,
		&userCreditedAt, &clubCreditedAt, &creditedClubID,
	)
	if err != nil {
		return nil, err
	}

	log.Date = time.Date(log.Date.Year(), log.Date.Month(), log.Date.Day(), 0, 0, 0, 0, time.UTC)
	log.Source = model.StepSource(source)
	if userCreditedAt.Valid {
		t := userCreditedAt.Time
		log.UserCreditedAt = &t
	}
	if clubCreditedAt.Valid {
		t := clubCreditedAt.Time
		log.ClubCreditedAt = &t
	}
	log.CreditedClubID = creditedClubID.String
	return log, nil
}

// FindByUserAndDate は(user_id, log_date)で歩数記録を取得する。見つからない場合はnilを返す。
func (r *PostgresStepLogRepo) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.StepLog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+stepLogColumns+` FROM step_logs WHERE user_id = $1 AND log_date = $2::date`,
		userID, date.Format(dateLayout),
	)
	log, err := scanStepLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("歩数記録の取得に失敗しました: %w", err)
	}
	return log, nil
}

// Create は歩数記録を条件付きで挿入する。
// (user_id, log_date)の一意制約で競合した場合は挿入せずfalseを返す。
// 挿入できた場合はlog.CreatedAtにDB上の作成日時を設定する。
func (r *PostgresStepLogRepo) Create(ctx context.Context, log *model.StepLog) (bool, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO step_logs (id, user_id, log_date, steps, points, source, device_signature)
		 VALUES ($1, $2, $3::date, $4, $5, $6, $7)
		 ON CONFLICT (user_id, log_date) DO NOTHING
		 RETURNING created_at`,
		log.ID, log.UserID, log.Date.Format(dateLayout), log.Steps, log.Points, string(log.Source), log.DeviceSignature,
	).Scan(&log.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		if isPQConstraint(err, pqCodeForeignKeyViolation, constraintStepLogsUserFK) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("歩数記録の作成に失敗しました: %w", err)
	}
	return true, nil
}

// ListRecentByUser はユーザーの歩数記録を日付の新しい順に最大limit件返す。
func (r *PostgresStepLogRepo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*model.StepLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stepLogColumns+`
		 FROM step_logs
		 WHERE user_id = $1
		 ORDER BY log_date DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("歩数記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var logs []*model.StepLog
	for rows.Next() {
		log, err := scanStepLog(rows)
		if err != nil {
			return nil, fmt.Errorf("歩数記録行の読み取りに失敗しました: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("歩数記録一覧の走査に失敗しました: %w", err)
	}
	return logs, nil
}

// CreditUser は記録のポイントと歩数をユーザーの累計に加算する。
// user_credited_atがNULLの記録のみを対象にするため、再実行しても二重に加算されない。
func (r *PostgresStepLogRepo) CreditUser(ctx context.Context, logID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`WITH mark AS (
			UPDATE step_logs SET user_credited_at = now()
			WHERE id = $1 AND user_id = $2 AND user_credited_at IS NULL
			RETURNING points, steps
		)
		UPDATE users
		SET total_points = users.total_points + mark.points,
		    total_steps = users.total_steps + mark.steps,
		    updated_at = now()
		FROM mark
		WHERE users.id = $2`,
		logID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("ユーザーへのポイント加算に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// CreditClub は記録のポイントをクラブの累計に加算する。
// club_credited_atがNULLの記録のみを対象にするため、再実行しても二重に加算されない。
// クラブが存在しない場合は記録側の外部キー制約で文全体が失敗し、ErrClubNotFoundを返す。
func (r *PostgresStepLogRepo) CreditClub(ctx context.Context, logID, clubID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`WITH mark AS (
			UPDATE step_logs SET club_credited_at = now(), credited_club_id = $2
			WHERE id = $1 AND club_credited_at IS NULL
			RETURNING points
		)
		UPDATE clubs
		SET total_points = clubs.total_points + mark.points
		FROM mark
		WHERE clubs.id = $2`,
		logID, clubID,
	)
	if err != nil {
		if isPQConstraint(err, pqCodeForeignKeyViolation, constraintStepLogsClubFK) {
			return false, ErrClubNotFound
		}
		return false, fmt.Errorf("クラブへのポイント加算に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// SettleClubCredit はクラブへのクレジットを不要として確定する。
// credited_club_idはNULLのまま残る。
func (r *PostgresStepLogRepo) SettleClubCredit(ctx context.Context, logID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE step_logs SET club_credited_at = now()
		 WHERE id = $1 AND club_credited_at IS NULL`,
		logID,
	)
	if err != nil {
		return fmt.Errorf("クラブクレジットの確定に失敗しました: %w", err)
	}
	return nil
}

// ListPendingCredits はolderThanより前に作成され、クレジットが未適用のまま残っている記録を
// ユーザーの現在の所属クラブと合わせて古い順に返す。
func (r *PostgresStepLogRepo) ListPendingCredits(ctx context.Context, olderThan time.Time, limit int) ([]*model.PendingCredit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sl.id, sl.user_id, sl.points, sl.steps,
		        sl.user_credited_at IS NULL, sl.club_credited_at IS NULL,
		        COALESCE(u.club_id, ''), sl.created_at
		 FROM step_logs sl
		 JOIN users u ON u.id = sl.user_id
		 WHERE (sl.user_credited_at IS NULL OR sl.club_credited_at IS NULL)
		   AND sl.created_at < $1
		 ORDER BY sl.created_at ASC
		 LIMIT $2`,
		olderThan, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("未適用クレジットの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var pending []*model.PendingCredit
	for rows.Next() {
		p := &model.PendingCredit{}
		if err := rows.Scan(&p.LogID, &p.UserID, &p.Points, &p.Steps, &p.UserPending, &p.ClubPending, &p.UserClubID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("未適用クレジット行の読み取りに失敗しました: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("未適用クレジットの走査に失敗しました: %w", err)
	}
	return pending, nil
}

// compile-time interface check
var _ StepLogRepository = (*PostgresStepLogRepo)(nil)
