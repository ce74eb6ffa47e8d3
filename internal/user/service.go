// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/hitoshi/stepclub/internal/model"
	"github.com/hitoshi/stepclub/internal/repository"
	"github.com/hitoshi/stepclub/internal/security"
)

// ニックネームの文字数制限
const (
	MinNicknameLength = 2
	MaxNicknameLength = 50
)

// ClubFinder はクラブ存在確認のインターフェース。
type ClubFinder interface {
	FindByID(ctx context.Context, id string) (*model.Club, error)
}

// UpdateProfileInput はプロフィール更新の入力値。nilの項目は変更しない。
type UpdateProfileInput struct {
	Nickname *string
	ClubID   *string
}

// Service はユーザー管理のサービス層。
// プロフィールの参照・更新と退会処理を提供する。累計値はここでは変更しない。
type Service struct {
	userRepo  repository.UserRepository
	clubs     ClubFinder
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	clubs ClubFinder,
	sanitizer security.TextSanitizer,
) *Service {
	if sanitizer == nil {
		sanitizer = security.NewTextSanitizer()
	}
	return &Service{
		userRepo:  userRepo,
		clubs:     clubs,
		sanitizer: sanitizer,
	}
}

// GetProfile はユーザーのプロフィールを返す。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はニックネームと所属クラブを更新する。
// ニックネームはHTMLを除去した後の文字数で検証する。
// 所属クラブの変更は今後の同期にのみ影響し、過去のクラブ累計は移動しない。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Nickname != nil {
		nickname, apiErr := s.normalizeNickname(*in.Nickname)
		if apiErr != nil {
			return nil, apiErr
		}
		user.Nickname = nickname
	}

	if in.ClubID != nil && *in.ClubID != user.ClubID {
		if err := s.ensureClubExists(ctx, *in.ClubID); err != nil {
			return nil, err
		}
		user.ClubID = *in.ClubID
	}

	err = s.userRepo.UpdateProfile(ctx, user)
	if errors.Is(err, repository.ErrClubNotFound) {
		return nil, model.NewInvalidClubError(user.ClubID)
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	slog.Info("プロフィールを更新しました",
		slog.String("user_id", userID),
		slog.String("club_id", user.ClubID),
	)
	return user, nil
}

// normalizeNickname はニックネームをプレーンテキスト化し、文字数を検証する。
func (s *Service) normalizeNickname(raw string) (string, *model.APIError) {
	nickname := s.sanitizer.SanitizeText(raw)
	n := utf8.RuneCountInString(nickname)
	if n < MinNicknameLength || n > MaxNicknameLength {
		return "", model.NewInvalidNicknameError(MinNicknameLength, MaxNicknameLength)
	}
	return nickname, nil
}

// ensureClubExists は所属先のクラブが存在するかを確認する。
// 空文字列は所属なしへの変更として受け付ける。
func (s *Service) ensureClubExists(ctx context.Context, clubID string) error {
	if clubID == "" {
		return nil
	}
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return fmt.Errorf("クラブの取得に失敗しました: %w", err)
	}
	if club == nil {
		return model.NewInvalidClubError(clubID)
	}
	return nil
}

// Withdraw はユーザーの退会処理を実行する。
// ユーザーを削除するとidentitiesとstep_logsはCASCADE削除される。
// クラブの累計ポイントは減算しない。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)
	return nil
}
