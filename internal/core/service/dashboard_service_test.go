package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
	"github.com/jonuar/Donacrypto/internal/pkg/validation"
)

func newDashboard(t *testing.T) (*DashboardService, *stubTransport) {
	t.Helper()
	tr := newStubTransport()
	return NewDashboardService(tr, validation.New(), DashboardOptions{}, zerolog.Nop()), tr
}

func walletList(ws ...map[string]any) map[string]any {
	return map[string]any{"wallets": ws}
}

func TestDashboard_FetchStatisticsReplacesWholesale(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodGet, "/user/creator/dashboard", ok(map[string]any{
		"stats": map[string]int{"followers_count": 4, "posts_count": 9},
	}))
	if err := d.FetchStatistics(context.Background()); err != nil {
		t.Fatalf("FetchStatistics: %v", err)
	}

	tr.on(http.MethodGet, "/user/creator/dashboard", ok(map[string]any{
		"stats": map[string]int{"posts_count": 2},
	}))
	if err := d.FetchStatistics(context.Background()); err != nil {
		t.Fatalf("FetchStatistics: %v", err)
	}
	if got := d.Snapshot().Statistics; got != (domain.Statistics{PostsCount: 2}) {
		t.Errorf("statistics merged instead of replaced: %+v", got)
	}
}

func TestDashboard_FetchFailureKeepsPriorState(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodGet, "/user/wallets", ok(walletList(
		map[string]any{"currency_type": "BTC", "wallet_address": "bc1"},
	)))
	if err := d.FetchWallets(context.Background()); err != nil {
		t.Fatalf("FetchWallets: %v", err)
	}

	tr.on(http.MethodGet, "/user/wallets", fail(http.StatusInternalServerError, "Error al obtener wallets"))
	err := d.FetchWallets(context.Background())
	if err == nil || err.Error() != "Error al obtener wallets" {
		t.Fatalf("expected backend message, got %v", err)
	}
	snap := d.Snapshot()
	if len(snap.Wallets) != 1 || snap.Wallets[0].CurrencyType != "BTC" {
		t.Errorf("prior wallets lost: %+v", snap.Wallets)
	}
	if snap.Loading.WalletsLoading {
		t.Error("loading flag left raised")
	}
}

func TestDashboard_FetchFollowersDefaultsAndMeta(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodGet, "/user/creator/followers", ok(map[string]any{
		"followers": []map[string]string{{"username": "fan1"}, {"username": "fan2"}},
		"page":      1,
		"limit":     20,
		"total":     42,
		"pages":     3,
	}))

	page, err := d.FetchFollowers(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("FetchFollowers: %v", err)
	}
	req, _ := tr.last(http.MethodGet, "/user/creator/followers")
	if req.Query.Get("page") != "1" || req.Query.Get("limit") != "20" {
		t.Errorf("query: %v", req.Query)
	}
	want := domain.Pagination{CurrentPage: 1, TotalPages: 3, TotalCount: 42, PageSize: 20}
	if page.Pagination != want || len(page.Followers) != 2 {
		t.Errorf("page: %+v", page)
	}
	if d.Snapshot().Followers.Pagination != want {
		t.Error("state not updated")
	}
}

func postsFixture(tr *stubTransport, body map[string]any) {
	tr.on(http.MethodGet, "/user/profile", ok(creatorProfile))
	tr.on(http.MethodGet, "/user/creator/posts/creator1", ok(body))
}

func fivePosts() []map[string]any {
	out := make([]map[string]any, 5)
	for i := range out {
		out[i] = map[string]any{"_id": string(rune('a' + i)), "title": "t", "content": "c"}
	}
	return out
}

func TestDashboard_FetchPostsPaginationFallback(t *testing.T) {
	d, tr := newDashboard(t)
	postsFixture(tr, map[string]any{"posts": fivePosts()})

	page, err := d.FetchPosts(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPosts: %v", err)
	}
	want := domain.Pagination{CurrentPage: 1, TotalPages: 1, TotalCount: 5, PageSize: 5}
	if page.Pagination != want {
		t.Errorf("pagination: got %+v, want %+v", page.Pagination, want)
	}
	req, _ := tr.last(http.MethodGet, "/user/creator/posts/creator1")
	if req.Query.Get("limit") != "5" || req.Route != "/user/creator/posts/{username}" {
		t.Errorf("request: %+v", req)
	}
}

func TestDashboard_FetchPostsTrustsServerMeta(t *testing.T) {
	d, tr := newDashboard(t)
	postsFixture(tr, map[string]any{"posts": fivePosts(), "page": 2, "total": 12})

	page, err := d.FetchPosts(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchPosts: %v", err)
	}
	want := domain.Pagination{CurrentPage: 2, TotalPages: 3, TotalCount: 12, PageSize: 5}
	if page.Pagination != want {
		t.Errorf("pagination: got %+v, want %+v", page.Pagination, want)
	}
}

func TestDashboard_FetchPostsProfileFailure(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodGet, "/user/profile", fail(http.StatusInternalServerError, "boom"))

	if _, err := d.FetchPosts(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if tr.count(http.MethodGet, "/user/creator/posts/creator1") != 0 {
		t.Error("posts requested without a username")
	}
}

func TestDashboard_AddWalletRefreshesOnce(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodPost, "/user/wallets", ok(map[string]string{"message": "ok"}))
	tr.on(http.MethodGet, "/user/wallets", ok(walletList(
		map[string]any{"currency_type": "ETH", "wallet_address": "0xabc", "is_default": true},
	)))

	err := d.AddWallet(context.Background(), ports.WalletInput{CurrencyType: "eth", WalletAddress: " 0xabc "})
	if err != nil {
		t.Fatalf("AddWallet: %v", err)
	}
	if n := tr.count(http.MethodGet, "/user/wallets"); n != 1 {
		t.Errorf("wallet fetches after add: %d, want 1", n)
	}
	req, _ := tr.last(http.MethodPost, "/user/wallets")
	if body := req.Body.(ports.WalletInput); body.CurrencyType != "ETH" || body.WalletAddress != "0xabc" {
		t.Errorf("body not normalised: %+v", body)
	}
	if w, ok := d.Snapshot().Wallets.Default(); !ok || w.CurrencyType != "ETH" {
		t.Errorf("default wallet: %+v %v", w, ok)
	}
}

func TestDashboard_AddWalletBackendErrorIsGeneral(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodPost, "/user/wallets", fail(http.StatusConflict, "Ya tienes una wallet configurada para BTC"))

	err := d.AddWallet(context.Background(), ports.WalletInput{CurrencyType: "BTC", WalletAddress: "bc1"})
	if err == nil {
		t.Fatal("expected error")
	}
	fe := d.Snapshot().FormErrors
	if fe[domain.FormErrorGeneral] != "Ya tienes una wallet configurada para BTC" {
		t.Errorf("form errors: %v", fe)
	}
	if tr.count(http.MethodGet, "/user/wallets") != 0 {
		t.Error("failed mutation must not refresh")
	}
}

func TestDashboard_AddWalletValidationSetsFieldErrors(t *testing.T) {
	d, tr := newDashboard(t)
	err := d.AddWallet(context.Background(), ports.WalletInput{CurrencyType: "DOGE2"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	fe := d.Snapshot().FormErrors
	if fe["currency_type"] == "" || fe["wallet_address"] == "" {
		t.Errorf("form errors: %v", fe)
	}
	if tr.total() != 0 {
		t.Error("invalid input reached the network")
	}
}

func TestDashboard_WalletMutationsRefresh(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodGet, "/user/wallets", ok(walletList()))
	tr.on(http.MethodPut, "/user/wallets/BTC", ok(nil))
	tr.on(http.MethodDelete, "/user/wallets/BTC", ok(nil))
	tr.on(http.MethodPut, "/user/wallets/set-default/BTC", ok(nil))
	ctx := context.Background()

	if err := d.UpdateWallet(ctx, "btc", "bc1new"); err != nil {
		t.Fatalf("UpdateWallet: %v", err)
	}
	req, _ := tr.last(http.MethodPut, "/user/wallets/BTC")
	if body := req.Body.(map[string]string); body["wallet_address"] != "bc1new" {
		t.Errorf("update body: %v", body)
	}
	if err := d.SetDefaultWallet(ctx, "BTC"); err != nil {
		t.Fatalf("SetDefaultWallet: %v", err)
	}
	if err := d.DeleteWallet(ctx, "BTC"); err != nil {
		t.Fatalf("DeleteWallet: %v", err)
	}
	if n := tr.count(http.MethodGet, "/user/wallets"); n != 3 {
		t.Errorf("wallet fetches: %d, want 3", n)
	}
	if err := d.DeleteWallet(ctx, "NOPE"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unsupported currency: %v", err)
	}
}

func TestDashboard_MutationSucceedsWhenRefreshFails(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodDelete, "/user/wallets/ETH", ok(nil))
	tr.on(http.MethodGet, "/user/wallets", fail(http.StatusInternalServerError, "down"))

	if err := d.DeleteWallet(context.Background(), "ETH"); err != nil {
		t.Fatalf("DeleteWallet: %v", err)
	}
}

func TestDashboard_CreatePostRefreshesPostsAndStats(t *testing.T) {
	d, tr := newDashboard(t)
	postsFixture(tr, map[string]any{"posts": fivePosts(), "total": 6, "pages": 2})
	tr.on(http.MethodGet, "/user/creator/dashboard", ok(map[string]any{"stats": map[string]int{"posts_count": 6}}))
	tr.on(http.MethodPost, "/user/creator/create-post", ok(map[string]string{"message": "Post creado con éxito", "post_id": "p9"}))

	id, err := d.CreatePost(context.Background(), ports.PostInput{Title: "Hola", Content: "Mundo"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if id != "p9" {
		t.Errorf("post id: %q", id)
	}
	if tr.count(http.MethodGet, "/user/creator/posts/creator1") != 1 || tr.count(http.MethodGet, "/user/creator/dashboard") != 1 {
		t.Error("expected one posts and one statistics refresh")
	}
	if d.Snapshot().Statistics.PostsCount != 6 {
		t.Error("statistics not refreshed")
	}
}

func TestDashboard_DeleteLastPostOnPageStepsBack(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodGet, "/user/profile", ok(creatorProfile))
	tr.on(http.MethodGet, "/user/creator/dashboard", ok(map[string]any{"stats": map[string]int{}}))
	tr.handle(http.MethodGet, "/user/creator/posts/creator1", func(req ports.Request) stubReply {
		if req.Query.Get("page") == "2" {
			return ok(map[string]any{"posts": []any{}, "page": 2, "total": 5})
		}
		return ok(map[string]any{"posts": fivePosts(), "page": 1, "total": 5})
	})
	tr.on(http.MethodDelete, "/user/creator/delete-post/p6", ok(nil))

	d.mu.Lock()
	d.state.Posts.Pagination.CurrentPage = 2
	d.mu.Unlock()

	if err := d.DeletePost(context.Background(), "p6"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if got := d.Snapshot().Posts.Pagination.CurrentPage; got != 1 {
		t.Errorf("current page: %d, want 1", got)
	}
}

func TestDashboard_UpdateProfileClassifiesUsernameErrors(t *testing.T) {
	cases := []struct {
		msg string
		key string
	}{
		{"El nombre de usuario ya está en uso", domain.FormErrorUsername},
		{"Username already taken", domain.FormErrorUsername},
		{"Error al actualizar el perfil", domain.FormErrorGeneral},
	}
	for _, tc := range cases {
		d, tr := newDashboard(t)
		tr.on(http.MethodPut, "/user/creator/update-profile", fail(http.StatusConflict, tc.msg))

		err := d.UpdateProfile(context.Background(), ports.ProfileInput{Username: "newname"})
		if err == nil || err.Error() != tc.msg {
			t.Fatalf("%q: expected backend message, got %v", tc.msg, err)
		}
		fe := d.Snapshot().FormErrors
		if len(fe) != 1 || fe[tc.key] != tc.msg {
			t.Errorf("%q: form errors %v, want key %q", tc.msg, fe, tc.key)
		}
	}
}

func TestDashboard_UpdateProfileSendsOnlySetFields(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodPut, "/user/creator/update-profile", ok(nil))
	d.mu.Lock()
	d.state.FormErrors["general"] = "stale"
	d.mu.Unlock()

	if err := d.UpdateProfile(context.Background(), ports.ProfileInput{Bio: " hola "}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	req, _ := tr.last(http.MethodPut, "/user/creator/update-profile")
	if body := req.Body.(ports.ProfileInput); body != (ports.ProfileInput{Bio: "hola"}) {
		t.Errorf("body: %+v", body)
	}
	if len(d.Snapshot().FormErrors) != 0 {
		t.Error("form errors not cleared")
	}
}

func TestDashboard_ClearFormErrors(t *testing.T) {
	d, _ := newDashboard(t)
	d.mu.Lock()
	d.state.FormErrors["username"] = "taken"
	d.mu.Unlock()
	d.ClearFormErrors()
	if len(d.Snapshot().FormErrors) != 0 {
		t.Error("form errors not cleared")
	}
}

func TestDashboard_InitializeToleratesPartialFailure(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodGet, "/user/creator/dashboard", ok(map[string]any{"stats": map[string]int{"followers_count": 1}}))
	tr.on(http.MethodGet, "/user/wallets", fail(http.StatusInternalServerError, "wallets down"))
	tr.on(http.MethodGet, "/user/creator/followers", ok(map[string]any{"followers": []any{}}))
	postsFixture(tr, map[string]any{"posts": fivePosts()})

	report := d.InitializeDashboard(context.Background())
	if report.Complete() || len(report.Degraded) != 1 || report.Degraded[0] != domain.ResourceWallets {
		t.Fatalf("report: %+v", report)
	}
	snap := d.Snapshot()
	if snap.Statistics.FollowersCount != 1 || len(snap.Posts.Posts) != 5 {
		t.Errorf("successful resources not applied: %+v", snap)
	}
	if snap.Loading != (domain.LoadingFlags{}) {
		t.Errorf("loading flags left raised: %+v", snap.Loading)
	}
}

// blockingTransport holds every request until released, so loading flags
// can be observed mid-flight.
type blockingTransport struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingTransport) Do(ctx context.Context, _ ports.Request, _ any) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func TestDashboard_LoadingFlagDuringFetch(t *testing.T) {
	bt := &blockingTransport{started: make(chan struct{}), release: make(chan struct{})}
	d := NewDashboardService(bt, validation.New(), DashboardOptions{}, zerolog.Nop())

	done := make(chan error)
	go func() { done <- d.FetchWallets(context.Background()) }()

	<-bt.started
	if l := d.Snapshot().Loading; !l.WalletsLoading || l.DataLoading {
		t.Errorf("flags mid-flight: %+v", l)
	}
	close(bt.release)
	if err := <-done; err != nil {
		t.Fatalf("FetchWallets: %v", err)
	}
	if d.Snapshot().Loading.WalletsLoading {
		t.Error("flag not lowered")
	}
}

func TestDashboard_ResetRestoresInitialState(t *testing.T) {
	d, tr := newDashboard(t)
	tr.on(http.MethodGet, "/user/creator/dashboard", ok(map[string]any{
		"stats": map[string]int{"followers_count": 42, "posts_count": 7},
	}))
	tr.on(http.MethodGet, "/user/wallets", ok(walletList(
		map[string]any{"currency_type": "BTC", "wallet_address": "bc1-ana", "is_default": true},
	)))
	ctx := context.Background()
	if err := d.FetchStatistics(ctx); err != nil {
		t.Fatalf("FetchStatistics: %v", err)
	}
	if err := d.FetchWallets(ctx); err != nil {
		t.Fatalf("FetchWallets: %v", err)
	}
	d.setGeneralError(&domain.APIError{Status: http.StatusBadRequest, Message: "stale"})

	d.Reset()

	snap := d.Snapshot()
	if snap.Statistics != (domain.Statistics{}) || len(snap.Wallets) != 0 {
		t.Errorf("loaded data survived Reset: %+v", snap)
	}
	if len(snap.FormErrors) != 0 {
		t.Errorf("form errors survived Reset: %+v", snap.FormErrors)
	}
	if snap.Posts.Pagination.CurrentPage != 1 || snap.Followers.Pagination.CurrentPage != 1 {
		t.Errorf("pagination not back on page 1: %+v %+v", snap.Posts.Pagination, snap.Followers.Pagination)
	}
}

// gatedTransport answers from a stubTransport, but only once released.
type gatedTransport struct {
	*stubTransport
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedTransport) Do(ctx context.Context, req ports.Request, out any) error {
	g.once.Do(func() { close(g.started) })
	<-g.release
	return g.stubTransport.Do(ctx, req, out)
}

func TestDashboard_ResetDropsInFlightResult(t *testing.T) {
	gt := &gatedTransport{stubTransport: newStubTransport(), started: make(chan struct{}), release: make(chan struct{})}
	gt.on(http.MethodGet, "/user/wallets", ok(walletList(
		map[string]any{"currency_type": "BTC", "wallet_address": "bc1-ana"},
	)))
	d := NewDashboardService(gt, validation.New(), DashboardOptions{}, zerolog.Nop())

	done := make(chan error)
	go func() { done <- d.FetchWallets(context.Background()) }()
	<-gt.started

	d.Reset()
	if !d.Snapshot().Loading.WalletsLoading {
		t.Error("Reset lowered the flag of a call still in flight")
	}

	close(gt.release)
	if err := <-done; err != nil {
		t.Fatalf("FetchWallets: %v", err)
	}
	snap := d.Snapshot()
	if len(snap.Wallets) != 0 {
		t.Errorf("result from before Reset was applied: %+v", snap.Wallets)
	}
	if snap.Loading.WalletsLoading {
		t.Error("flag not lowered after the call returned")
	}
}
