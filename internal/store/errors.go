package store

import "errors"

// ErrJobNotFound indicates the referenced job does not exist in the database.
var ErrJobNotFound = errors.New("job not found")
