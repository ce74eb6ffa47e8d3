// Package model はドメインモデルを定義する。
package model

import "time"

// User はサポーターとして歩数を記録するユーザーを表す。
// TotalPoints と TotalSteps は歩数同期パイプラインのみが加算する。
type User struct {
	ID          string
	Email       string
	Nickname    string
	ClubID      string // 未所属の場合は空文字列
	TotalPoints int64
	TotalSteps  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasClub はユーザーがクラブに所属しているかを返す。
func (u *User) HasClub() bool {
	return u != nil && u.ClubID != ""
}

// Identity は外部IdPとの紐付け情報を表す。
// 将来的に複数のIdP（Google, Apple等）に対応可能な構造。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}
