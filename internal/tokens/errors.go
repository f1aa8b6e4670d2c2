package tokens

import "errors"

var (
	ErrNoToken            = errors.New("no access token available")
	ErrTokenExpired       = errors.New("access token expired")
	ErrRefreshTooFrequent = errors.New("token refresh attempted too frequently")
	ErrNoRefresher        = errors.New("no token refresher configured")
)
