package transfer

type PinterestTokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	TokenType             string `json:"token_type"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	Scope                 string `json:"scope"`
}

type PinterestUser struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	AccountType     string `json:"account_type"`
	ProfileImage    string `json:"profile_image"`
	FollowerCount   int64  `json:"follower_count"`
	PinCount        int64  `json:"pin_count"`
	BoardCount      int64  `json:"board_count"`
	MonthlyViews    int64  `json:"monthly_views"`
	WebsiteURL      string `json:"website_url"`
	BusinessName    string `json:"business_name"`
	IsOwnerOfBoards bool   `json:"is_owner_of_boards"`
}

type PinterestBoard struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Privacy     string `json:"privacy"`
	PinCount    int64  `json:"pin_count"`
	FollowerCount int64 `json:"follower_count"`
}

type PinterestBoardsResponse struct {
	Items    []PinterestBoard `json:"items"`
	Bookmark string           `json:"bookmark"`
}

type PinterestPinMedia struct {
	MediaType string `json:"media_type"`
	Images    map[string]struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
}

type PinterestPin struct {
	ID          string            `json:"id"`
	CreatedAt   string            `json:"created_at"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Link        string            `json:"link"`
	BoardID     string            `json:"board_id"`
	Media       PinterestPinMedia `json:"media"`
}

type PinterestPinsResponse struct {
	Items    []PinterestPin `json:"items"`
	Bookmark string         `json:"bookmark"`
}

type PinterestPinResponse struct {
	ID string `json:"id"`
}

type PinterestMediaRegisterResponse struct {
	MediaID          string            `json:"media_id"`
	MediaType        string            `json:"media_type"`
	UploadURL        string            `json:"upload_url"`
	UploadParameters map[string]string `json:"upload_parameters"`
}

type PinterestMediaStatusResponse struct {
	MediaID   string `json:"media_id"`
	MediaType string `json:"media_type"`
	Status    string `json:"status"`
}
