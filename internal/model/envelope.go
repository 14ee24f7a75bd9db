package model

// Envelope is the body shape of every upstream response.
// ErrorCode is zero on success; Data may still be absent.
type Envelope[T any] struct {
	Data      T      `json:"data"`
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
}

// Upstream error codes with a fixed meaning.
const (
	CodeOK           = 0
	CodeLoginExpired = -1001
	CodeGeneric      = -1
)

func (e Envelope[T]) OK() bool {
	return e.ErrorCode == CodeOK
}
