package transfer

type LinkedInTokenResponse struct {
	AccessToken           string `json:"access_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	Scope                 string `json:"scope"`
}

type LinkedInUserInfo struct {
	Sub        string `json:"sub"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Picture    string `json:"picture"`
}

type LinkedInOrgACL struct {
	RoleAssignee         string `json:"roleAssignee"`
	State                string `json:"state"`
	OrganizationalTarget string `json:"organizationalTarget"`
	Role                 string `json:"role"`
}

type LinkedInOrgACLsResponse struct {
	Elements []LinkedInOrgACL `json:"elements"`
	Paging   struct {
		Count int `json:"count"`
		Start int `json:"start"`
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	} `json:"paging"`
}

type LinkedInOrganization struct {
	ID            int64  `json:"id"`
	VanityName    string `json:"vanityName"`
	LocalizedName string `json:"localizedName"`
}

type LinkedInNetworkSize struct {
	FirstDegreeSize int64 `json:"firstDegreeSize"`
}

type LinkedInUploadMechanism struct {
	MediaUploadHTTPRequest struct {
		UploadURL string            `json:"uploadUrl"`
		Headers   map[string]string `json:"headers"`
	} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
}

type LinkedInRegisterUploadResponse struct {
	Value struct {
		Asset           string                  `json:"asset"`
		UploadMechanism LinkedInUploadMechanism `json:"uploadMechanism"`
	} `json:"value"`
}

type LinkedInVideoInitResponse struct {
	Value struct {
		Video              string `json:"video"`
		UploadInstructions []struct {
			UploadURL string `json:"uploadUrl"`
			FirstByte int64  `json:"firstByte"`
			LastByte  int64  `json:"lastByte"`
		} `json:"uploadInstructions"`
		UploadToken string `json:"uploadToken"`
	} `json:"value"`
}

type LinkedInVideoStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type LinkedInPost struct {
	ID             string `json:"id"`
	Commentary     string `json:"commentary"`
	CreatedAt      int64  `json:"createdAt"`
	PublishedAt    int64  `json:"publishedAt"`
	LifecycleState string `json:"lifecycleState"`
}

type LinkedInPostsResponse struct {
	Elements []LinkedInPost `json:"elements"`
	Paging   struct {
		Count int `json:"count"`
		Start int `json:"start"`
		Total int `json:"total"`
	} `json:"paging"`
}
