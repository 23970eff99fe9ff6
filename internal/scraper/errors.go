package scraper

import "errors"

var (
	// ErrFetchFailed is returned when product page GET doesn't answer 200 OK.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrImageDownloadFailed is returned when product image can't be downloaded.
	ErrImageDownloadFailed = errors.New("image download failed")
	// ErrPersistenceFailed is returned when repository doesn't assign product identifier.
	ErrPersistenceFailed = errors.New("persistence failed")
)
