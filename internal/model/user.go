package model

// User is the account record returned by login and registration.
type User struct {
	ID          int      `json:"id"`
	Username    string   `json:"username"`
	Nickname    string   `json:"nickname"`
	PublicName  string   `json:"publicName"`
	Email       string   `json:"email"`
	Icon        string   `json:"icon"`
	Token       string   `json:"token"`
	Type        int      `json:"type"`
	Admin       bool     `json:"admin"`
	CoinCount   int      `json:"coinCount"`
	ChapterTops []string `json:"chapterTops"`
	CollectIDs  []int    `json:"collectIds"`
}

// GatewayClaims are carried by bearer tokens issued for the local gateway.
type GatewayClaims struct {
	Subject string `json:"sub"`
	TokenID string `json:"jti"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
