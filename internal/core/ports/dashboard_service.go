package ports

import (
	"context"

	"github.com/jonuar/Donacrypto/internal/core/domain"
)

// WalletInput adds a payout address for one currency.
type WalletInput struct {
	CurrencyType  string `json:"currency_type"  validate:"required,currency"`
	WalletAddress string `json:"wallet_address" validate:"required,max=256"`
}

// PostInput is a new creator post.
type PostInput struct {
	Title     string   `json:"title"                validate:"required,max=200"`
	Content   string   `json:"content"              validate:"required"`
	MediaURLs []string `json:"media_urls,omitempty" validate:"omitempty,dive,url"`
}

// ProfileInput updates the creator profile. Empty fields are left unchanged;
// at least one must be set.
type ProfileInput struct {
	Username  string `json:"username,omitempty"   validate:"required_without_all=Bio AvatarURL,omitempty,min=5,max=30"`
	Bio       string `json:"bio,omitempty"        validate:"max=500"`
	AvatarURL string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// DashboardService aggregates creator resources into a client-side view.
type DashboardService interface {
	FetchStatistics(ctx context.Context) error
	FetchWallets(ctx context.Context) error
	FetchFollowers(ctx context.Context, page, pageSize int) (domain.FollowerPage, error)
	FetchPosts(ctx context.Context, page int) (domain.PostPage, error)

	AddWallet(ctx context.Context, in WalletInput) error
	UpdateWallet(ctx context.Context, currencyType, address string) error
	DeleteWallet(ctx context.Context, currencyType string) error
	SetDefaultWallet(ctx context.Context, currencyType string) error

	CreatePost(ctx context.Context, in PostInput) (string, error)
	DeletePost(ctx context.Context, id string) error

	UpdateProfile(ctx context.Context, in ProfileInput) error
	ClearFormErrors()

	InitializeDashboard(ctx context.Context) domain.InitReport
	Snapshot() domain.DashboardState
}
