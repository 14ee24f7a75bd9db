package model

// APIResponse is the gateway envelope. It is distinct from the upstream
// Envelope, whose errorCode the gateway folds into Error.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta describes the paging position of a feed snapshot. Page is 0-based.
type Meta struct {
	Page       int  `json:"page"`
	TotalPages int  `json:"total_pages"`
	Loaded     int  `json:"loaded"`
	HasMore    bool `json:"has_more"`
}
