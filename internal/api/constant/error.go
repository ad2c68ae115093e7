package constant

import "net/http"

type CustomError struct {
	StatusCode int
	Message    string
}

func NewCError(StatusCode int, Message string) CustomError {
	return CustomError{StatusCode: StatusCode, Message: Message}
}

func (err CustomError) Error() string {
	return err.Message
}

const (
	RefreshTokenHeader = "x-refresh-token"
	QuotesCacheControl = "s-maxage=60, stale-while-revalidate=300"
)

var (
	ErrNoSymbol = NewCError(http.StatusBadRequest,
		"please provide symbol")
	ErrUnknownSymbol = NewCError(http.StatusNotFound,
		"symbol is not part of the index")
	ErrQuotesUnavailable = NewCError(http.StatusServiceUnavailable,
		"quotes are not available yet")
	ErrRefreshNotConfigured = NewCError(http.StatusServiceUnavailable,
		"refresh token is not configured")
	ErrUnauthorized = NewCError(http.StatusUnauthorized,
		"invalid refresh token")
	ErrTooManyRefreshes = NewCError(http.StatusTooManyRequests,
		"too many refresh requests, try again later")
	ErrInvalidForce = NewCError(http.StatusBadRequest,
		"invalid 'force' query parameter: must be a boolean")
)
