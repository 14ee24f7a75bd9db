package model

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RePassword string `json:"repassword"`
}

type CollectToggleResponse struct {
	ArticleID int  `json:"article_id"`
	Collected bool `json:"collected"`
}
