package transfer

type GBAccount struct {
	Name              string `json:"name"`
	AccountName       string `json:"accountName"`
	Type              string `json:"type"`
	VerificationState string `json:"verificationState"`
	VettedState       string `json:"vettedState"`
}

type GBAccountsResponse struct {
	Accounts      []GBAccount `json:"accounts"`
	NextPageToken string      `json:"nextPageToken"`
}

type GBLocation struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	StoreCode string `json:"storeCode"`
	Metadata  struct {
		PlaceID     string `json:"placeId"`
		MapsURI     string `json:"mapsUri"`
		NewReviewURI string `json:"newReviewUri"`
	} `json:"metadata"`
}

type GBLocationsResponse struct {
	Locations     []GBLocation `json:"locations"`
	NextPageToken string       `json:"nextPageToken"`
}

type GBVerification struct {
	State string `json:"state"`
}

type GBLocalPostMedia struct {
	MediaFormat string `json:"mediaFormat"`
	SourceURL   string `json:"sourceUrl"`
}

type GBCallToActionBody struct {
	ActionType string `json:"actionType"`
	URL        string `json:"url,omitempty"`
}

type GBLocalPost struct {
	Name         string             `json:"name,omitempty"`
	LanguageCode string             `json:"languageCode"`
	Summary      string             `json:"summary"`
	TopicType    string             `json:"topicType"`
	State        string             `json:"state,omitempty"`
	SearchURL    string             `json:"searchUrl,omitempty"`
	CreateTime   string             `json:"createTime,omitempty"`
	Media        []GBLocalPostMedia `json:"media,omitempty"`
	CallToAction *GBCallToActionBody `json:"callToAction,omitempty"`
	Event        *GBLocalPostEvent  `json:"event,omitempty"`
	Offer        *GBLocalPostOffer  `json:"offer,omitempty"`
}

type GBLocalPostEvent struct {
	Title    string `json:"title"`
	Schedule struct {
		StartDate GBDate `json:"startDate"`
		EndDate   GBDate `json:"endDate"`
	} `json:"schedule"`
}

type GBDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

type GBLocalPostOffer struct {
	CouponCode      string `json:"couponCode,omitempty"`
	RedeemOnlineURL string `json:"redeemOnlineUrl,omitempty"`
	TermsConditions string `json:"termsConditions,omitempty"`
}

type GBLocalPostsResponse struct {
	LocalPosts    []GBLocalPost `json:"localPosts"`
	NextPageToken string        `json:"nextPageToken"`
}
