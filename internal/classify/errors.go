package classify

import "errors"

var (
	ErrEmptyContent       = errors.New("content is required")
	ErrContentTooLong     = errors.New("content exceeds the maximum length")
	ErrInvalidEncoding    = errors.New("content is not valid UTF-8")
	ErrDepartmentRequired = errors.New("department is required")
	ErrHistoryIDRequired  = errors.New("history id is required")
	ErrParse              = errors.New("model response could not be parsed")
	ErrCompletion         = errors.New("completion service failed")
)
