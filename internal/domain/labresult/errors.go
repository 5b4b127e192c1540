package labresult

import "errors"

var ErrResultNotFound = errors.New("laboratory result not found")
