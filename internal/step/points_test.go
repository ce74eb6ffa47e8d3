package step

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestCalculatePoints(t *testing.T) {
	calc := NewPointCalculator(DefaultStepsPerPoint, discardLogger())

	tests := []struct {
		steps int
		want  int
	}{
		{0, 0},
		{999, 0},
		{1000, 1},
		{5432, 5},
		{8543, 8},
		{100000, 100},
		{-5, 0},
	}
	for _, tt := range tests {
		if got := calc.CalculatePoints(tt.steps); got != tt.want {
			t.Errorf("CalculatePoints(%d) = %d, want %d", tt.steps, got, tt.want)
		}
	}
}

func TestCalculatePoints_IsMonotonic(t *testing.T) {
	calc := NewPointCalculator(DefaultStepsPerPoint, discardLogger())

	prev := calc.CalculatePoints(0)
	for steps := 1; steps <= MaxDailySteps; steps += 37 {
		got := calc.CalculatePoints(steps)
		if got < prev {
			t.Fatalf("CalculatePoints(%d) = %d < previous %d", steps, got, prev)
		}
		prev = got
	}
}

func TestCalculatePoints_NegativeLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	calc := NewPointCalculator(DefaultStepsPerPoint, logger)

	if got := calc.CalculatePoints(-100); got != 0 {
		t.Errorf("CalculatePoints(-100) = %d, want 0", got)
	}

	var entry map[string]any
	line := strings.SplitN(strings.TrimSpace(buf.String()), "\n", 2)[0]
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to parse log line %q: %v", line, err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["steps"] != float64(-100) {
		t.Errorf("steps = %v, want -100", entry["steps"])
	}
}

func TestNewPointCalculator_InvalidRateFallsBackToDefault(t *testing.T) {
	for _, rate := range []int{0, -1} {
		calc := NewPointCalculator(rate, nil)
		if calc.StepsPerPoint() != DefaultStepsPerPoint {
			t.Errorf("NewPointCalculator(%d).StepsPerPoint() = %d, want %d", rate, calc.StepsPerPoint(), DefaultStepsPerPoint)
		}
	}
}

func TestStepsForNextPoint(t *testing.T) {
	calc := NewPointCalculator(DefaultStepsPerPoint, discardLogger())

	tests := []struct {
		steps int
		want  int
	}{
		{8543, 457},
		{0, 1000},
		{999, 1},
		{1000, 1000},
		{5432, 568},
		{-10, 1000},
	}
	for _, tt := range tests {
		if got := calc.StepsForNextPoint(tt.steps); got != tt.want {
			t.Errorf("StepsForNextPoint(%d) = %d, want %d", tt.steps, got, tt.want)
		}
	}
}

func TestContributionMessage_Tiers(t *testing.T) {
	calc := NewPointCalculator(DefaultStepsPerPoint, discardLogger())

	tests := []struct {
		points int
		want   string
	}{
		{0, "Every step counts! Keep walking for your club!"},
		{1, "Nice work! 1 points contributed to your club!"},
		{4, "Nice work! 4 points contributed to your club!"},
		{5, "Great job! 5 points added to your club's total!"},
		{9, "Great job! 9 points added to your club's total!"},
		{10, "Amazing! You've earned 10 points for your club!"},
		{100, "Amazing! You've earned 100 points for your club!"},
	}
	for _, tt := range tests {
		if got := calc.ContributionMessage(tt.points, 1000); got != tt.want {
			t.Errorf("ContributionMessage(%d) = %q, want %q", tt.points, got, tt.want)
		}
	}
}

func TestBonusPoints(t *testing.T) {
	calc := NewPointCalculator(DefaultStepsPerPoint, discardLogger())
	weekday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)  // 月曜日
	saturday := time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC) // 土曜日
	sunday := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)   // 日曜日

	tests := []struct {
		name  string
		steps int
		date  time.Time
		want  int
	}{
		{"平日・1万歩未満", 5432, weekday, 0},
		{"平日・1万歩", 10000, weekday, 5},
		{"平日・2万5千歩", 25000, weekday, 10},
		{"土曜・9千歩", 9000, saturday, 0},
		{"土曜・2万5千歩", 25000, saturday, 12},
		{"日曜・10万歩", 100000, sunday, 60},
		{"歩数0", 0, sunday, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.BonusPoints(tt.steps, tt.date); got != tt.want {
				t.Errorf("BonusPoints(%d) = %d, want %d", tt.steps, got, tt.want)
			}
		})
	}
}
