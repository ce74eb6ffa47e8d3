// Package step は歩数同期とポイント換算、統計集計のドメインロジックを提供する。
package step

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/stepclub/internal/model"
)

// 入力検証の境界値
const (
	MinSteps      = 0
	MaxDailySteps = 100000

	// DateLayout は日付文字列の形式（YYYY-MM-DD）。
	DateLayout = "2006-01-02"

	MinDeviceSignatureLength = 1
	MaxDeviceSignatureLength = 200

	DefaultHistoryDays = 30
	MaxHistoryDays     = 365
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateSteps は歩数が0以上MaxDailySteps以下かを判定する。範囲外の値を丸めることはしない。
func ValidateSteps(count int) bool {
	return count >= MinSteps && count <= MaxDailySteps
}

// ValidateDateFormat は文字列がYYYY-MM-DD形式の実在する暦日かを判定する。
// 2024-02-30 や 2023-02-29 のような存在しない日付はfalseを返す。
func ValidateDateFormat(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidateDateNotFuture は日付がnowの暦日以前かを判定する。
// 暦日はnowが持つタイムゾーンで判定する。形式が不正な場合はfalseを返す。
func ValidateDateNotFuture(s string, now time.Time) bool {
	date, ok := ParseDate(s)
	if !ok {
		return false
	}
	return !date.After(Today(now))
}

// ValidateSource は取得元が対応プラットフォームかを判定する。
func ValidateSource(s string) bool {
	switch model.StepSource(s) {
	case model.StepSourceHealthKit, model.StepSourceGoogleFit:
		return true
	}
	return false
}

// ValidateDeviceSignature はデバイス署名の文字数が許容範囲内かを判定する。
func ValidateDeviceSignature(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= MinDeviceSignatureLength && n <= MaxDeviceSignatureLength
}

// ValidateHistoryDays は履歴取得日数が1以上MaxHistoryDays以下かを判定する。
func ValidateHistoryDays(days int) bool {
	return days >= 1 && days <= MaxHistoryDays
}

// ParseDate はYYYY-MM-DD形式の文字列をUTCの0時として解釈する。
func ParseDate(s string) (time.Time, bool) {
	if !ValidateDateFormat(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Today はnowのタイムゾーンにおける暦日をUTCの0時として返す。
// 歩数記録の日付と同じ表現にそろえて比較するために使う。
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
