package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrUserNotFound は参照先のユーザーが存在しない場合に返る。
	ErrUserNotFound = errors.New("referenced user does not exist")
	// ErrClubNotFound は参照先のクラブが存在しない場合に返る。
	ErrClubNotFound = errors.New("referenced club does not exist")
	// ErrIdentityExists は同じprovider_user_idのidentityが既に登録されている場合に返る。
	ErrIdentityExists = errors.New("identity already exists")
)

// PostgreSQLのエラーコード
const (
	pqCodeForeignKeyViolation = "23503"
	pqCodeUniqueViolation     = "23505"
)

// 制約名（PostgreSQLの既定の命名規則による）
const (
	constraintStepLogsUserFK       = "step_logs_user_id_fkey"
	constraintStepLogsClubFK       = "step_logs_credited_club_id_fkey"
	constraintUsersClubFK          = "users_club_id_fkey"
	constraintIdentitiesProviderUQ = "identities_provider_provider_user_id_key"
)

// isPQConstraint はerrが指定制約に違反したPostgreSQLエラーかを判定する。
func isPQConstraint(err error, code, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code && pqErr.Constraint == constraint
	}
	return false
}
