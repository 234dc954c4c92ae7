package models

import "errors"

// Common application errors
var (
	ErrInstanceNotFound  = errors.New("instance not found")
	ErrClientNotFound    = errors.New("download client not found")
	ErrDuplicateName     = errors.New("a record with this name already exists")
	ErrNothingToDispatch = errors.New("either magnet_link or torrent_url is required")
)
