// Package auth はOAuth認証フローとアクセストークンの発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/stepclub/internal/model"
	"github.com/hitoshi/stepclub/internal/repository"
	"github.com/hitoshi/stepclub/internal/security"
)

// 初回ログイン時に付与するニックネームの制約
const (
	minNicknameLength = 2
	maxNicknameLength = 50
	fallbackNickname  = "Supporter"
)

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Provider       string // "google" 等
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// LoginResult はログイン成功時に返すアクセストークンとユーザー情報。
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth     OAuthProvider
	userRepo  repository.UserRepository
	identRepo repository.IdentityRepository
	tokens    *TokenIssuer
	sanitizer security.TextSanitizer
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	identRepo repository.IdentityRepository,
	tokens *TokenIssuer,
) *Service {
	return &Service{
		oauth:     oauth,
		userRepo:  userRepo,
		identRepo: identRepo,
		tokens:    tokens,
		sanitizer: security.NewTextSanitizer(),
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、アクセストークンを発行する。
// 未登録ユーザーの場合はusersレコードとidentitiesレコードを同時に自動作成する。
// 同じIdPアカウントの初回ログインが競合した場合は先に作成されたユーザーでログインする。
func (s *Service) HandleCallback(ctx context.Context, code string) (*LoginResult, error) {
	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. identitiesテーブルで既存ユーザーを検索
	userID, err := s.findUserID(ctx, userInfo)
	if err != nil {
		return nil, err
	}

	// 3. 新規ユーザーの作成
	if userID == "" {
		userID, err = s.register(ctx, userInfo)
		if err != nil {
			return nil, err
		}
	} else {
		slog.Info("existing user logged in",
			slog.String("user_id", userID),
			slog.String("provider", userInfo.Provider),
		)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found after login", userID)
	}

	// 4. アクセストークンを発行
	token, expiresAt, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// findUserID はIdPアカウントに紐づくユーザーIDを返す。未登録の場合は空文字列を返す。
func (s *Service) findUserID(ctx context.Context, info *OAuthUserInfo) (string, error) {
	identity, err := s.identRepo.FindByProviderAndProviderUserID(ctx, info.Provider, info.ProviderUserID)
	if err != nil {
		return "", fmt.Errorf("failed to find identity: %w", err)
	}
	if identity == nil {
		return "", nil
	}
	return identity.UserID, nil
}

// register はusersレコードとidentitiesレコードを作成し、ユーザーIDを返す。
func (s *Service) register(ctx context.Context, info *OAuthUserInfo) (string, error) {
	now := time.Now()
	newUser := &model.User{
		ID:        uuid.New().String(),
		Email:     info.Email,
		Nickname:  s.defaultNickname(info),
		CreatedAt: now,
		UpdatedAt: now,
	}
	newIdentity := &model.Identity{
		ID:             uuid.New().String(),
		UserID:         newUser.ID,
		Provider:       info.Provider,
		ProviderUserID: info.ProviderUserID,
		CreatedAt:      now,
	}

	err := s.userRepo.CreateWithIdentity(ctx, newUser, newIdentity)
	if errors.Is(err, repository.ErrIdentityExists) {
		// 並行した初回ログインに先を越された
		userID, findErr := s.findUserID(ctx, info)
		if findErr != nil {
			return "", findErr
		}
		if userID == "" {
			return "", fmt.Errorf("identity exists but could not be read: %w", err)
		}
		return userID, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to create user and identity: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", newUser.ID),
		slog.String("provider", info.Provider),
	)
	return newUser.ID, nil
}

// defaultNickname はIdPのプロフィール名、なければメールアドレスのローカル部をニックネームにする。
func (s *Service) defaultNickname(info *OAuthUserInfo) string {
	local, _, _ := strings.Cut(info.Email, "@")
	for _, candidate := range []string{info.Name, local} {
		nickname := s.sanitizer.SanitizeText(candidate)
		if utf8.RuneCountInString(nickname) < minNicknameLength {
			continue
		}
		return truncateRunes(nickname, maxNicknameLength)
	}
	return fallbackNickname
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}
