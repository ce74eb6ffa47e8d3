// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, not_found, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryAuth       = "auth"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidSteps           = "INVALID_STEPS"
	ErrCodeInvalidDate            = "INVALID_DATE"
	ErrCodeFutureDate             = "FUTURE_DATE"
	ErrCodeInvalidSource          = "INVALID_SOURCE"
	ErrCodeInvalidDeviceSignature = "INVALID_DEVICE_SIGNATURE"
	ErrCodeInvalidDays            = "INVALID_DAYS"
	ErrCodeInvalidNickname        = "INVALID_NICKNAME"
	ErrCodeInvalidClub            = "INVALID_CLUB"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeClubNotFound           = "CLUB_NOT_FOUND"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeInternal               = "INTERNAL_ERROR"
)

// IsInvalidInput はエラーが入力検証エラーかを返す。
func (e *APIError) IsInvalidInput() bool {
	return e.Category == CategoryValidation
}

// IsNotFound はエラーが対象未検出エラーかを返す。
func (e *APIError) IsNotFound() bool {
	return e.Category == CategoryNotFound
}

// NewInvalidStepsError は歩数が範囲外の場合のエラーを生成する。
func NewInvalidStepsError(steps, max int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSteps,
		Message:  fmt.Sprintf("Invalid steps count: %d", steps),
		Category: CategoryValidation,
		Action:   fmt.Sprintf("Steps must be between 0 and %d.", max),
	}
}

// NewInvalidDateError は日付形式が不正な場合のエラーを生成する。
func NewInvalidDateError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("Invalid date format: %s", date),
		Category: CategoryValidation,
		Action:   "Use a real calendar date in YYYY-MM-DD format.",
	}
}

// NewFutureDateError は未来日付が指定された場合のエラーを生成する。
func NewFutureDateError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeFutureDate,
		Message:  fmt.Sprintf("Date cannot be in the future: %s", date),
		Category: CategoryValidation,
		Action:   "Sync steps for today or an earlier date.",
	}
}

// NewInvalidSourceError は取得元が未対応の場合のエラーを生成する。
func NewInvalidSourceError(source string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSource,
		Message:  fmt.Sprintf("Invalid data source: %q", source),
		Category: CategoryValidation,
		Action:   "Source must be either healthkit or googlefit.",
	}
}

// NewInvalidDeviceSignatureError はデバイス署名の長さが不正な場合のエラーを生成する。
func NewInvalidDeviceSignatureError(min, max int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDeviceSignature,
		Message:  "Invalid device signature.",
		Category: CategoryValidation,
		Action:   fmt.Sprintf("Device signature must be %d to %d characters.", min, max),
	}
}

// NewInvalidDaysError は履歴取得日数が範囲外の場合のエラーを生成する。
func NewInvalidDaysError(days, max int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDays,
		Message:  fmt.Sprintf("Invalid days parameter: %d", days),
		Category: CategoryValidation,
		Action:   fmt.Sprintf("Days must be between 1 and %d.", max),
	}
}

// NewInvalidNicknameError はニックネームが不正な場合のエラーを生成する。
func NewInvalidNicknameError(min, max int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidNickname,
		Message:  "Invalid nickname.",
		Category: CategoryValidation,
		Action:   fmt.Sprintf("Nickname must be between %d and %d characters.", min, max),
	}
}

// NewInvalidClubError は存在しないクラブへの所属変更エラーを生成する。
func NewInvalidClubError(clubID string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidClub,
		Message:  fmt.Sprintf("Invalid club ID: %s", clubID),
		Category: CategoryValidation,
		Action:   "Choose a club from GET /api/clubs.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: CategoryNotFound,
		Action:   "Sign in again.",
	}
}

// NewClubNotFoundError はクラブが見つからない場合のエラーを生成する。
func NewClubNotFoundError(clubID string) *APIError {
	return &APIError{
		Code:     ErrCodeClubNotFound,
		Message:  fmt.Sprintf("Club %s not found", clubID),
		Category: CategoryNotFound,
		Action:   "Check the club ID.",
	}
}

// NewUnauthorizedError はアクセストークンが無効な場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required.",
		Category: CategoryAuth,
		Action:   "Sign in again to obtain a new access token.",
	}
}

// NewRateLimitExceededError はレート制限超過時のエラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "Too many requests. Please try again later.",
		Category: CategorySystem,
		Action:   "Please wait and retry after the specified time.",
	}
}

// NewInvalidRequestError はリクエストボディを解釈できない場合のエラーを生成する。
func NewInvalidRequestError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", detail),
		Category: CategoryValidation,
		Action:   "Check the request body format.",
	}
}

// NewInternalError は内部エラーの汎用エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: CategorySystem,
		Action:   "Please try again later.",
	}
}
