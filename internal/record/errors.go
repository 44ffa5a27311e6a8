package record

import "errors"

// Parse errors. A file that fails with any of these is orphaned by the
// scanner: it is skipped and reported, never fatal to the scan.
var (
	ErrMissingDelimiters = errors.New("no frontmatter delimiter pair found")
	ErrMissingID         = errors.New("missing required field: id")
	ErrInvalidField      = errors.New("invalid field value")
)
