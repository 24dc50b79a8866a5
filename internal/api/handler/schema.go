package handler

import (
	"github.com/jonuar/Donacrypto/internal/core/domain"
)

type sessionResponse struct {
	Authenticated bool                     `json:"is_authenticated"`
	Policy        domain.PersistencePolicy `json:"persistence_policy,omitempty"`
	User          *domain.User             `json:"user,omitempty"`
	Role          string                   `json:"role,omitempty"`
	IsCreator     bool                     `json:"is_creator"`
	IsFollower    bool                     `json:"is_follower"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		Authenticated: s.Authenticated,
		Policy:        s.Policy,
		User:          s.User,
		Role:          s.Role(),
		IsCreator:     s.User.IsCreator(),
		IsFollower:    s.User.IsFollower(),
	}
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required,max=128"`
}

type updateWalletRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required,max=256"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createPostResponse struct {
	Message string `json:"message"`
	PostID  string `json:"post_id"`
}

// walletsView is the wallet list plus the views derived from it.
type walletsView struct {
	Wallets         domain.Wallets `json:"wallets"`
	Default         *domain.Wallet `json:"default_wallet,omitempty"`
	CoversRequired  bool           `json:"covers_required"`
	MissingRequired []string       `json:"missing_required,omitempty"`
}

func toWalletsView(ws domain.Wallets, required []string) walletsView {
	v := walletsView{Wallets: ws, CoversRequired: ws.Covers(required)}
	if v.Wallets == nil {
		v.Wallets = domain.Wallets{}
	}
	if w, ok := ws.Default(); ok {
		v.Default = &w
	}
	have := ws.ByCurrency()
	for _, c := range required {
		if _, ok := have[c]; !ok {
			v.MissingRequired = append(v.MissingRequired, c)
		}
	}
	return v
}

type dashboardResponse struct {
	domain.DashboardState
	WalletSummary walletsView        `json:"wallet_summary"`
	Report        *domain.InitReport `json:"report,omitempty"`
}
