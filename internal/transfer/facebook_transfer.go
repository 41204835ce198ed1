package transfer

type FacebookTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type FacebookProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

type FacebookPaging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next"`
}

type FacebookPage struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AccessToken    string `json:"access_token"`
	Category       string `json:"category"`
	FollowersCount int64  `json:"followers_count"`

	InstagramBusinessAccount *struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
	ConnectedInstagramAccount *struct {
		ID string `json:"id"`
	} `json:"connected_instagram_account"`
}

type FacebookPagesResponse struct {
	Data   []FacebookPage `json:"data"`
	Paging FacebookPaging `json:"paging"`
}

type FacebookPublishResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type FacebookVideoStatus struct {
	ID     string `json:"id"`
	Status struct {
		VideoStatus     string `json:"video_status"`
		UploadingPhase  struct{ Status string `json:"status"` } `json:"uploading_phase"`
		ProcessingPhase struct{ Status string `json:"status"` } `json:"processing_phase"`
	} `json:"status"`
}

type FacebookStoryStart struct {
	VideoID   string `json:"video_id"`
	UploadURL string `json:"upload_url"`
}

type FacebookAttachment struct {
	MediaType string `json:"media_type"`
	Type      string `json:"type"`
	Media     struct {
		Image struct {
			Src string `json:"src"`
		} `json:"image"`
		Source string `json:"source"`
	} `json:"media"`
	Subattachments struct {
		Data []FacebookAttachment `json:"data"`
	} `json:"subattachments"`
}

type FacebookPost struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	CreatedTime string `json:"created_time"`
	Attachments struct {
		Data []FacebookAttachment `json:"data"`
	} `json:"attachments"`
}

type FacebookPostsResponse struct {
	Data   []FacebookPost `json:"data"`
	Paging FacebookPaging `json:"paging"`
}

type FacebookInsightValue struct {
	Value any `json:"value"`
}

type FacebookInsight struct {
	Name   string                 `json:"name"`
	Period string                 `json:"period"`
	Values []FacebookInsightValue `json:"values"`
}

type FacebookInsightsResponse struct {
	Data []FacebookInsight `json:"data"`
}
