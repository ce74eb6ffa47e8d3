// Package model はドメインモデルを定義する。
package model

import "time"

// StepSource は歩数データの取得元プラットフォームを表す。
type StepSource string

const (
	// StepSourceHealthKit はiOS HealthKit由来の歩数。
	StepSourceHealthKit StepSource = "healthkit"
	// StepSourceGoogleFit はGoogle Fit由来の歩数。
	StepSourceGoogleFit StepSource = "googlefit"
)

// StepLog は1ユーザー1日分の歩数記録を表す。
// (UserID, Date) が自然キーで、作成後は変更されない。
// Date は時刻成分を持たない暦日で、UTCの0時として保持する。
type StepLog struct {
	ID              string
	UserID          string
	Date            time.Time
	Steps           int
	Points          int
	Source          StepSource
	DeviceSignature string
	CreatedAt       time.Time

	// クレジット適用状況。同期処理の途中停止を検出し再適用するために使う。
	UserCreditedAt *time.Time
	ClubCreditedAt *time.Time
	CreditedClubID string
}

// PendingCredit は未適用のクレジットが残っているStepLogを表す。
// 照合ジョブが対象ユーザーの現在の所属クラブと合わせて取得する。
type PendingCredit struct {
	LogID       string
	UserID      string
	Points      int
	Steps       int
	UserPending bool
	ClubPending bool
	UserClubID  string
	CreatedAt   time.Time
}
