package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
	"github.com/jonuar/Donacrypto/internal/pkg/metrics"
	"github.com/jonuar/Donacrypto/internal/pkg/validation"
)

const (
	defaultPostsPageSize     = 5
	defaultFollowersPageSize = 20
)

// DashboardOptions sets page sizes; zero values fall back to 5 posts and 20
// followers per page.
type DashboardOptions struct {
	PostsPageSize     int
	FollowersPageSize int
}

type loadingFlag int

const (
	flagData loadingFlag = iota
	flagWallets
	flagFollowers
	flagPosts
	flagProfile
	flagCount
)

type statsResponse struct {
	Stats domain.Statistics `json:"stats"`
}

type walletsResponse struct {
	Wallets domain.Wallets `json:"wallets"`
}

// pageMeta is the pagination envelope both list endpoints share. Absent
// fields stay nil so the fallbacks can tell them apart from zero.
type pageMeta struct {
	Page  *int `json:"page"`
	Limit *int `json:"limit"`
	Total *int `json:"total"`
	Pages *int `json:"pages"`
}

type followersResponse struct {
	Followers []domain.Follower `json:"followers"`
	pageMeta
}

type postsResponse struct {
	Posts []domain.Post `json:"posts"`
	pageMeta
}

type createPostResponse struct {
	Message string `json:"message"`
	PostID  string `json:"post_id"`
}

// DashboardService implements ports.DashboardService. Every fetch replaces
// its slice of state wholesale on success and leaves it alone on failure.
type DashboardService struct {
	transport ports.Transport
	validate  Validator
	log       zerolog.Logger

	postsPageSize     int
	followersPageSize int

	mu       sync.RWMutex
	state    domain.DashboardState
	inflight [flagCount]int
	// gen is bumped by Reset; a fetch started under an older generation
	// drops its result.
	gen uint64
}

var _ ports.DashboardService = (*DashboardService)(nil)

func NewDashboardService(transport ports.Transport, validate Validator, opts DashboardOptions, log zerolog.Logger) *DashboardService {
	if opts.PostsPageSize <= 0 {
		opts.PostsPageSize = defaultPostsPageSize
	}
	if opts.FollowersPageSize <= 0 {
		opts.FollowersPageSize = defaultFollowersPageSize
	}
	s := &DashboardService{
		transport:         transport,
		validate:          validate,
		log:               log,
		postsPageSize:     opts.PostsPageSize,
		followersPageSize: opts.FollowersPageSize,
	}
	s.state = s.initialState()
	return s
}

func (s *DashboardService) initialState() domain.DashboardState {
	return domain.DashboardState{
		FormErrors: domain.FormErrors{},
		Posts:      domain.PostPage{Pagination: domain.Pagination{CurrentPage: 1, PageSize: s.postsPageSize}},
		Followers:  domain.FollowerPage{Pagination: domain.Pagination{CurrentPage: 1, PageSize: s.followersPageSize}},
	}
}

// Reset discards everything loaded for the previous session. Loading flags
// of calls still in flight stay up until those calls return, but their
// results are dropped.
func (s *DashboardService) Reset() {
	s.mu.Lock()
	s.gen++
	s.state = s.initialState()
	s.syncFlagsLocked()
	s.mu.Unlock()
}

func (s *DashboardService) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// commit applies fn to the state unless a Reset happened since gen was read.
func (s *DashboardService) commit(gen uint64, fn func(*domain.DashboardState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.log.Debug().Msg("dropping dashboard result from a previous session")
		return
	}
	fn(&s.state)
}

// begin raises a loading flag; the returned func lowers it. Flags are
// counted so overlapping calls keep the flag up until the last one ends.
func (s *DashboardService) begin(f loadingFlag) func() {
	s.mu.Lock()
	s.inflight[f]++
	s.syncFlagsLocked()
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.inflight[f]--
		s.syncFlagsLocked()
		s.mu.Unlock()
	}
}

func (s *DashboardService) syncFlagsLocked() {
	s.state.Loading = domain.LoadingFlags{
		DataLoading:      s.inflight[flagData] > 0,
		WalletsLoading:   s.inflight[flagWallets] > 0,
		FollowersLoading: s.inflight[flagFollowers] > 0,
		PostsLoading:     s.inflight[flagPosts] > 0,
		ProfileEditing:   s.inflight[flagProfile] > 0,
	}
}

func (s *DashboardService) fetchFailed(resource string, err error) {
	metrics.DashboardFetchFailuresTotal.WithLabelValues(resource).Inc()
	s.log.Warn().Err(err).Str("resource", resource).Msg("dashboard fetch failed")
}

func (s *DashboardService) FetchStatistics(ctx context.Context) error {
	gen := s.generation()
	defer s.begin(flagData)()

	var resp statsResponse
	err := s.transport.Do(ctx, ports.Request{Method: http.MethodGet, Path: "/user/creator/dashboard"}, &resp)
	if err != nil {
		s.fetchFailed(domain.ResourceStatistics, err)
		return domain.NewActionError("fetch_statistics", "could not load dashboard statistics", err)
	}

	s.commit(gen, func(st *domain.DashboardState) { st.Statistics = resp.Stats })
	return nil
}

func (s *DashboardService) FetchWallets(ctx context.Context) error {
	gen := s.generation()
	defer s.begin(flagWallets)()

	var resp walletsResponse
	err := s.transport.Do(ctx, ports.Request{Method: http.MethodGet, Path: "/user/wallets"}, &resp)
	if err != nil {
		s.fetchFailed(domain.ResourceWallets, err)
		return domain.NewActionError("fetch_wallets", "could not load wallets", err)
	}

	s.commit(gen, func(st *domain.DashboardState) { st.Wallets = resp.Wallets.Clone() })
	return nil
}

// FetchFollowers loads one page of followers. Non-positive arguments use
// page 1 and the configured page size.
func (s *DashboardService) FetchFollowers(ctx context.Context, page, pageSize int) (domain.FollowerPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.followersPageSize
	}
	gen := s.generation()
	defer s.begin(flagFollowers)()

	var resp followersResponse
	err := s.transport.Do(ctx, ports.Request{
		Method: http.MethodGet,
		Path:   "/user/creator/followers",
		Query:  pageQuery(page, pageSize),
	}, &resp)
	if err != nil {
		s.fetchFailed(domain.ResourceFollowers, err)
		return domain.FollowerPage{}, domain.NewActionError("fetch_followers", "could not load followers", err)
	}

	result := domain.FollowerPage{
		Followers:  resp.Followers,
		Pagination: resp.pagination(page, pageSize, len(resp.Followers)),
	}
	s.commit(gen, func(st *domain.DashboardState) { st.Followers = result.Clone() })
	return result, nil
}

// FetchPosts loads one page of the current creator's posts. The posts
// endpoint is keyed by username, so the profile is looked up first.
func (s *DashboardService) FetchPosts(ctx context.Context, page int) (domain.PostPage, error) {
	if page <= 0 {
		page = 1
	}
	gen := s.generation()
	defer s.begin(flagPosts)()

	var profile domain.User
	if err := s.transport.Do(ctx, ports.Request{Method: http.MethodGet, Path: "/user/profile"}, &profile); err != nil {
		s.fetchFailed(domain.ResourcePosts, err)
		return domain.PostPage{}, domain.NewActionError("fetch_posts", "could not load posts", err)
	}
	if profile.Username == "" {
		s.fetchFailed(domain.ResourcePosts, domain.ErrMalformedResponse)
		return domain.PostPage{}, domain.NewActionError("fetch_posts", "could not load posts", domain.ErrMalformedResponse)
	}

	var resp postsResponse
	err := s.transport.Do(ctx, ports.Request{
		Method: http.MethodGet,
		Path:   "/user/creator/posts/" + url.PathEscape(profile.Username),
		Route:  "/user/creator/posts/{username}",
		Query:  pageQuery(page, s.postsPageSize),
	}, &resp)
	if err != nil {
		s.fetchFailed(domain.ResourcePosts, err)
		return domain.PostPage{}, domain.NewActionError("fetch_posts", "could not load posts", err)
	}

	pagination := resp.pagination(page, s.postsPageSize, len(resp.Posts))
	// The posts page size is ours to choose; the server's limit echo is ignored.
	pagination.PageSize = s.postsPageSize
	pagination.TotalPages = resp.totalPages(pagination.TotalCount, s.postsPageSize)

	result := domain.PostPage{Posts: resp.Posts, Pagination: pagination}
	s.commit(gen, func(st *domain.DashboardState) { st.Posts = result.Clone() })
	return result, nil
}

func pageQuery(page, limit int) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
}

// pagination trusts the server's page, limit, total and pages when present.
// total falls back to the number of items received and pages is recomputed
// from total when absent.
func (m pageMeta) pagination(page, pageSize, received int) domain.Pagination {
	p := domain.Pagination{CurrentPage: page, PageSize: pageSize, TotalCount: received}
	if m.Page != nil && *m.Page > 0 {
		p.CurrentPage = *m.Page
	}
	if m.Limit != nil && *m.Limit > 0 {
		p.PageSize = *m.Limit
	}
	if m.Total != nil {
		p.TotalCount = *m.Total
	}
	p.TotalPages = m.totalPages(p.TotalCount, p.PageSize)
	return p
}

func (m pageMeta) totalPages(total, pageSize int) int {
	if m.Pages != nil {
		return *m.Pages
	}
	return domain.TotalPagesFor(total, pageSize)
}

// ── Wallet mutations ──────────────────────────────────────────────────────────

func (s *DashboardService) AddWallet(ctx context.Context, in ports.WalletInput) error {
	s.ClearFormErrors()
	if err := s.validate.Struct(in); err != nil {
		s.setValidationErrors(err)
		return domain.NewActionError("add_wallet", err.Error(), err)
	}
	defer s.begin(flagWallets)()

	body := ports.WalletInput{
		CurrencyType:  strings.ToUpper(strings.TrimSpace(in.CurrencyType)),
		WalletAddress: strings.TrimSpace(in.WalletAddress),
	}
	err := s.transport.Do(ctx, ports.Request{Method: http.MethodPost, Path: "/user/wallets", Body: body}, nil)
	if err != nil {
		s.setGeneralError(err)
		return domain.NewActionError("add_wallet", "could not add wallet", err)
	}
	s.refreshWallets(ctx)
	return nil
}

func (s *DashboardService) UpdateWallet(ctx context.Context, currencyType, address string) error {
	s.ClearFormErrors()
	in := ports.WalletInput{
		CurrencyType:  strings.ToUpper(strings.TrimSpace(currencyType)),
		WalletAddress: strings.TrimSpace(address),
	}
	if err := s.validate.Struct(in); err != nil {
		s.setValidationErrors(err)
		return domain.NewActionError("update_wallet", err.Error(), err)
	}
	defer s.begin(flagWallets)()

	err := s.transport.Do(ctx, ports.Request{
		Method: http.MethodPut,
		Path:   "/user/wallets/" + url.PathEscape(in.CurrencyType),
		Route:  "/user/wallets/{currencyType}",
		Body:   map[string]string{"wallet_address": in.WalletAddress},
	}, nil)
	if err != nil {
		s.setGeneralError(err)
		return domain.NewActionError("update_wallet", "could not update wallet", err)
	}
	s.refreshWallets(ctx)
	return nil
}

func (s *DashboardService) DeleteWallet(ctx context.Context, currencyType string) error {
	currency, err := normalizeCurrency("delete_wallet", currencyType)
	if err != nil {
		return err
	}
	defer s.begin(flagWallets)()

	err = s.transport.Do(ctx, ports.Request{
		Method: http.MethodDelete,
		Path:   "/user/wallets/" + url.PathEscape(currency),
		Route:  "/user/wallets/{currencyType}",
	}, nil)
	if err != nil {
		return domain.NewActionError("delete_wallet", "could not delete wallet", err)
	}
	s.refreshWallets(ctx)
	return nil
}

func (s *DashboardService) SetDefaultWallet(ctx context.Context, currencyType string) error {
	currency, err := normalizeCurrency("set_default_wallet", currencyType)
	if err != nil {
		return err
	}
	defer s.begin(flagWallets)()

	err = s.transport.Do(ctx, ports.Request{
		Method: http.MethodPut,
		Path:   "/user/wallets/set-default/" + url.PathEscape(currency),
		Route:  "/user/wallets/set-default/{currencyType}",
	}, nil)
	if err != nil {
		return domain.NewActionError("set_default_wallet", "could not set default wallet", err)
	}
	s.refreshWallets(ctx)
	return nil
}

func normalizeCurrency(op, currencyType string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(currencyType))
	if !domain.IsSupportedCurrency(currency) {
		return "", domain.NewActionError(op, "unsupported currency "+strconv.Quote(currencyType), domain.ErrInvalidInput)
	}
	return currency, nil
}

// refreshWallets re-reads the wallet list after a successful mutation. A
// failed refresh does not turn the mutation into a failure.
func (s *DashboardService) refreshWallets(ctx context.Context) {
	if err := s.FetchWallets(ctx); err != nil {
		s.log.Warn().Err(err).Msg("wallet refresh after mutation failed")
	}
}

// ── Posts ─────────────────────────────────────────────────────────────────────

// CreatePost publishes a post and returns its id, then refreshes the
// current posts page and the statistics.
func (s *DashboardService) CreatePost(ctx context.Context, in ports.PostInput) (string, error) {
	if err := s.validate.Struct(in); err != nil {
		return "", domain.NewActionError("create_post", err.Error(), err)
	}

	var resp createPostResponse
	err := s.transport.Do(ctx, ports.Request{Method: http.MethodPost, Path: "/user/creator/create-post", Body: in}, &resp)
	if err != nil {
		return "", domain.NewActionError("create_post", "could not create post", err)
	}
	s.refreshAfterPostChange(ctx)
	return resp.PostID, nil
}

func (s *DashboardService) DeletePost(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NewActionError("delete_post", "post id is required", domain.ErrInvalidInput)
	}
	err := s.transport.Do(ctx, ports.Request{
		Method: http.MethodDelete,
		Path:   "/user/creator/delete-post/" + url.PathEscape(id),
		Route:  "/user/creator/delete-post/{postID}",
	}, nil)
	if err != nil {
		return domain.NewActionError("delete_post", "could not delete post", err)
	}
	s.refreshAfterPostChange(ctx)
	return nil
}

func (s *DashboardService) refreshAfterPostChange(ctx context.Context) {
	s.mu.RLock()
	page := s.state.Posts.Pagination.CurrentPage
	s.mu.RUnlock()

	var g errgroup.Group
	g.Go(func() error {
		result, err := s.FetchPosts(ctx, page)
		if err == nil && len(result.Posts) == 0 && page > 1 {
			_, err = s.FetchPosts(ctx, page-1)
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("posts refresh after change failed")
		}
		return nil
	})
	g.Go(func() error {
		if err := s.FetchStatistics(ctx); err != nil {
			s.log.Warn().Err(err).Msg("statistics refresh after post change failed")
		}
		return nil
	})
	_ = g.Wait()
}

// ── Profile and form errors ───────────────────────────────────────────────────

// UpdateProfile sends only the fields that are set. A backend message about
// the username is shown next to that field; anything else is general.
func (s *DashboardService) UpdateProfile(ctx context.Context, in ports.ProfileInput) error {
	s.ClearFormErrors()
	in = ports.ProfileInput{
		Username:  strings.TrimSpace(in.Username),
		Bio:       strings.TrimSpace(in.Bio),
		AvatarURL: strings.TrimSpace(in.AvatarURL),
	}
	if err := s.validate.Struct(in); err != nil {
		s.setValidationErrors(err)
		return domain.NewActionError("update_profile", err.Error(), err)
	}
	defer s.begin(flagProfile)()

	err := s.transport.Do(ctx, ports.Request{Method: http.MethodPut, Path: "/user/creator/update-profile", Body: in}, nil)
	if err != nil {
		if msg := domain.BackendMessage(err); msg != "" {
			key := domain.FormErrorGeneral
			if mentionsUsername(msg) {
				key = domain.FormErrorUsername
			}
			s.mu.Lock()
			s.state.FormErrors[key] = msg
			s.mu.Unlock()
		}
		return domain.NewActionError("update_profile", "could not update profile", err)
	}
	return nil
}

func mentionsUsername(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "username") || strings.Contains(lower, "nombre de usuario")
}

func (s *DashboardService) ClearFormErrors() {
	s.mu.Lock()
	s.state.FormErrors = domain.FormErrors{}
	s.mu.Unlock()
}

func (s *DashboardService) setGeneralError(err error) {
	msg := domain.BackendMessage(err)
	if msg == "" {
		return
	}
	s.mu.Lock()
	s.state.FormErrors[domain.FormErrorGeneral] = msg
	s.mu.Unlock()
}

func (s *DashboardService) setValidationErrors(err error) {
	var fe validation.FieldErrors
	if !errors.As(err, &fe) {
		return
	}
	s.mu.Lock()
	for k, v := range fe {
		s.state.FormErrors[k] = v
	}
	s.mu.Unlock()
}

// ── Aggregate ─────────────────────────────────────────────────────────────────

// InitializeDashboard loads statistics, wallets, followers and the first
// posts page concurrently and waits for all of them. It never fails; the
// report names whatever could not be loaded.
func (s *DashboardService) InitializeDashboard(ctx context.Context) domain.InitReport {
	var (
		mu     sync.Mutex
		report domain.InitReport
	)
	record := func(resource string, err error) {
		if err == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		report.Degraded = append(report.Degraded, resource)
		if report.Errors == nil {
			report.Errors = make(map[string]string)
		}
		report.Errors[resource] = err.Error()
	}

	var g errgroup.Group
	g.Go(func() error {
		record(domain.ResourceStatistics, s.FetchStatistics(ctx))
		return nil
	})
	g.Go(func() error {
		record(domain.ResourceWallets, s.FetchWallets(ctx))
		return nil
	})
	g.Go(func() error {
		_, err := s.FetchFollowers(ctx, 1, s.followersPageSize)
		record(domain.ResourceFollowers, err)
		return nil
	})
	g.Go(func() error {
		_, err := s.FetchPosts(ctx, 1)
		record(domain.ResourcePosts, err)
		return nil
	})
	_ = g.Wait()

	sort.Strings(report.Degraded)
	if !report.Complete() {
		s.log.Warn().Strs("degraded", report.Degraded).Msg("dashboard initialized with missing data")
	}
	return report
}

func (s *DashboardService) Snapshot() domain.DashboardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}
