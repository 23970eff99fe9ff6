package platform

import (
	"errors"
)

// ErrProductNotFound is an error returned when product with provided ID doesn't exist in storage.
var ErrProductNotFound = errors.New("product not found")
