package domain

// Statistics is the creator dashboard snapshot. It is always replaced as a
// whole, never merged.
type Statistics struct {
	FollowersCount int `json:"followers_count"`
	PostsCount     int `json:"posts_count"`
}

// Pagination describes the page window a list slice currently holds.
// TotalPages is ceil(TotalCount / PageSize); the last page may be short.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalCount  int `json:"total_count"`
	PageSize    int `json:"page_size"`
}

// TotalPagesFor computes ceil(total / pageSize), guarding non-positive sizes.
func TotalPagesFor(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Post is a creator publication summary.
type Post struct {
	ID           string   `json:"_id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	MediaURLs    []string `json:"media_urls,omitempty"`
	CreatorEmail string   `json:"creator_email,omitempty"`
	LikesCount   int      `json:"likes_count"`
	UserLiked    bool     `json:"user_liked,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

// PostPage is one page of a creator's posts.
type PostPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// Follower is a follower summary as listed on the creator dashboard.
type Follower struct {
	Username   string `json:"username"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	FollowedAt string `json:"followed_at,omitempty"`
}

// FollowerPage is the follower window defined by the last page request.
type FollowerPage struct {
	Followers  []Follower `json:"followers"`
	Pagination Pagination `json:"pagination"`
}

// Form error keys.
const (
	FormErrorGeneral  = "general"
	FormErrorUsername = "username"
)

// FormErrors maps a field name (or "general") to a display message.
type FormErrors map[string]string

func (f FormErrors) Clone() FormErrors {
	out := make(FormErrors, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// LoadingFlags are independent per-resource in-flight indicators.
type LoadingFlags struct {
	DataLoading      bool `json:"data_loading"`
	WalletsLoading   bool `json:"wallets_loading"`
	FollowersLoading bool `json:"followers_loading"`
	PostsLoading     bool `json:"posts_loading"`
	ProfileEditing   bool `json:"profile_editing"`
}

// DashboardState is the creator-facing aggregate held by the dashboard service.
type DashboardState struct {
	Statistics Statistics   `json:"statistics"`
	Wallets    Wallets      `json:"wallets"`
	Followers  FollowerPage `json:"followers"`
	Posts      PostPage     `json:"posts"`
	FormErrors FormErrors   `json:"form_errors"`
	Loading    LoadingFlags `json:"loading"`
}

// Clone protects service-owned state from caller mutation.
func (s DashboardState) Clone() DashboardState {
	out := s
	out.Wallets = s.Wallets.Clone()
	out.Followers = s.Followers.Clone()
	out.Posts = s.Posts.Clone()
	out.FormErrors = s.FormErrors.Clone()
	return out
}

func (p PostPage) Clone() PostPage {
	p.Posts = clonePosts(p.Posts)
	return p
}

func (f FollowerPage) Clone() FollowerPage {
	f.Followers = append([]Follower(nil), f.Followers...)
	return f
}

func clonePosts(in []Post) []Post {
	if len(in) == 0 {
		return nil
	}
	out := make([]Post, len(in))
	for i, p := range in {
		p.MediaURLs = append([]string(nil), p.MediaURLs...)
		out[i] = p
	}
	return out
}

// Dashboard resource names, used for degraded reporting and metrics labels.
const (
	ResourceStatistics = "statistics"
	ResourceWallets    = "wallets"
	ResourceFollowers  = "followers"
	ResourcePosts      = "posts"
	ResourceProfile    = "profile"
)

// InitReport summarizes a best-effort dashboard initialization. The call as a
// whole always succeeds; Degraded names the resources that failed to load.
type InitReport struct {
	Degraded []string          `json:"degraded,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// Complete reports whether every resource loaded.
func (r InitReport) Complete() bool { return len(r.Degraded) == 0 }
