// Package model はドメインモデルを定義する。
package model

import "time"

// Club は応援対象のクラブを表す。
// TotalPoints は所属ユーザーからのクレジットで単調増加する。
type Club struct {
	ID          string
	Name        string
	TotalPoints int64
	LeagueRank  int
	FoundedYear int
	Stadium     string
	LogoURL     string
	CreatedAt   time.Time
}

// ClubWithMembers はクラブと所属メンバー数を結合したモデル。
type ClubWithMembers struct {
	Club
	ActiveMembers int
}

// Contributor はクラブへの貢献ポイント上位ユーザーを表す。
type Contributor struct {
	UserID   string
	Nickname string
	Points   int64
}

// ClubStats はクラブの集計統計を表す。
type ClubStats struct {
	ClubWithMembers
	WeeklyPoints    int64
	MonthlyPoints   int64
	TopContributors []Contributor
}
