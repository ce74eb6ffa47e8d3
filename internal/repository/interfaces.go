// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/stepclub/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// UpdateProfile はニックネームと所属クラブを更新する。
	// 累計ポイントと累計歩数は変更しない。
	UpdateProfile(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、step_logsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// ClubRepository はクラブデータの永続化インターフェース。
type ClubRepository interface {
	// FindByID は指定IDのクラブを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Club, error)

	// List は全クラブを所属メンバー数付きで累計ポイントの降順に返す。
	List(ctx context.Context) ([]model.ClubWithMembers, error)

	// CountMembers はクラブの所属ユーザー数を返す。
	CountMembers(ctx context.Context, clubID string) (int, error)

	// PointsSince は指定日時以降にクラブへクレジットされたポイント合計を返す。
	PointsSince(ctx context.Context, clubID string, since time.Time) (int64, error)

	// TopContributors はクラブへの貢献ポイント上位のユーザーを返す。
	TopContributors(ctx context.Context, clubID string, limit int) ([]model.Contributor, error)
}

// StepLogRepository は歩数記録（台帳）の永続化インターフェース。
// 作成済みの記録は更新も削除もしない。クレジット適用の記録のみ後から付与される。
type StepLogRepository interface {
	// FindByUserAndDate は(user_id, log_date)で歩数記録を取得する。見つからない場合はnilを返す。
	FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.StepLog, error)

	// Create は歩数記録を条件付きで挿入する。
	// 同じ(user_id, log_date)が既に存在する場合は何もせずfalseを返す。
	// ユーザーが存在しない場合はErrUserNotFoundを返す。
	Create(ctx context.Context, log *model.StepLog) (bool, error)

	// ListRecentByUser はユーザーの歩数記録を日付の新しい順に最大limit件返す。
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*model.StepLog, error)

	// CreditUser は記録のポイントと歩数をユーザーの累計に加算する。
	// 加算とuser_credited_atの記録は単一の文で行い、同じ記録に対しては一度しか適用されない。
	// 今回の呼び出しで適用された場合はtrueを返す。
	CreditUser(ctx context.Context, logID, userID string) (bool, error)

	// CreditClub は記録のポイントをクラブの累計に加算する。
	// 加算とclub_credited_at、credited_club_idの記録は単一の文で行う。
	// 今回の呼び出しで適用された場合はtrueを返す。
	CreditClub(ctx context.Context, logID, clubID string) (bool, error)

	// SettleClubCredit はクラブ未所属のユーザーの記録について、クラブへのクレジットを不要として確定する。
	SettleClubCredit(ctx context.Context, logID string) error

	// ListPendingCredits はolderThanより前に作成され、クレジットが未適用のまま残っている記録を返す。
	ListPendingCredits(ctx context.Context, olderThan time.Time, limit int) ([]*model.PendingCredit, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
