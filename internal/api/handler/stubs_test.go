package handler

import (
	"context"

	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
)

type stubSessionService struct {
	session         domain.Session
	loginFn         func(ctx context.Context, in ports.LoginInput) error
	registerFn      func(ctx context.Context, in ports.RegisterInput) error
	deleteAccountFn func(ctx context.Context, password string) error
	logouts         int
}

func (s *stubSessionService) Login(ctx context.Context, in ports.LoginInput) error {
	return s.loginFn(ctx, in)
}

func (s *stubSessionService) Register(ctx context.Context, in ports.RegisterInput) error {
	return s.registerFn(ctx, in)
}

func (s *stubSessionService) FetchProfile(ctx context.Context) error { return nil }

func (s *stubSessionService) Logout() {
	s.logouts++
	s.session = domain.Session{}
}

func (s *stubSessionService) DeleteAccount(ctx context.Context, password string) error {
	return s.deleteAccountFn(ctx, password)
}

func (s *stubSessionService) Initialize(ctx context.Context) error { return nil }
func (s *stubSessionService) Snapshot() domain.Session             { return s.session }
func (s *stubSessionService) IsAuthenticated() bool                { return s.session.Authenticated }

func (s *stubSessionService) Subscribe(fn func(domain.SessionEvent)) func() { return func() {} }

type stubDashboardService struct {
	state domain.DashboardState

	fetchStatisticsFn func(ctx context.Context) error
	fetchWalletsFn    func(ctx context.Context) error
	fetchFollowersFn  func(ctx context.Context, page, pageSize int) (domain.FollowerPage, error)
	fetchPostsFn      func(ctx context.Context, page int) (domain.PostPage, error)
	addWalletFn       func(ctx context.Context, in ports.WalletInput) error
	updateWalletFn    func(ctx context.Context, currencyType, address string) error
	deleteWalletFn    func(ctx context.Context, currencyType string) error
	setDefaultFn      func(ctx context.Context, currencyType string) error
	createPostFn      func(ctx context.Context, in ports.PostInput) (string, error)
	deletePostFn      func(ctx context.Context, id string) error
	updateProfileFn   func(ctx context.Context, in ports.ProfileInput) error
	initFn            func(ctx context.Context) domain.InitReport

	clears int
}

func (s *stubDashboardService) FetchStatistics(ctx context.Context) error {
	return s.fetchStatisticsFn(ctx)
}

func (s *stubDashboardService) FetchWallets(ctx context.Context) error {
	return s.fetchWalletsFn(ctx)
}

func (s *stubDashboardService) FetchFollowers(ctx context.Context, page, pageSize int) (domain.FollowerPage, error) {
	return s.fetchFollowersFn(ctx, page, pageSize)
}

func (s *stubDashboardService) FetchPosts(ctx context.Context, page int) (domain.PostPage, error) {
	return s.fetchPostsFn(ctx, page)
}

func (s *stubDashboardService) AddWallet(ctx context.Context, in ports.WalletInput) error {
	return s.addWalletFn(ctx, in)
}

func (s *stubDashboardService) UpdateWallet(ctx context.Context, currencyType, address string) error {
	return s.updateWalletFn(ctx, currencyType, address)
}

func (s *stubDashboardService) DeleteWallet(ctx context.Context, currencyType string) error {
	return s.deleteWalletFn(ctx, currencyType)
}

func (s *stubDashboardService) SetDefaultWallet(ctx context.Context, currencyType string) error {
	return s.setDefaultFn(ctx, currencyType)
}

func (s *stubDashboardService) CreatePost(ctx context.Context, in ports.PostInput) (string, error) {
	return s.createPostFn(ctx, in)
}

func (s *stubDashboardService) DeletePost(ctx context.Context, id string) error {
	return s.deletePostFn(ctx, id)
}

func (s *stubDashboardService) UpdateProfile(ctx context.Context, in ports.ProfileInput) error {
	return s.updateProfileFn(ctx, in)
}

func (s *stubDashboardService) ClearFormErrors() {
	s.clears++
	s.state.FormErrors = domain.FormErrors{}
}

func (s *stubDashboardService) InitializeDashboard(ctx context.Context) domain.InitReport {
	return s.initFn(ctx)
}

func (s *stubDashboardService) Snapshot() domain.DashboardState { return s.state.Clone() }
