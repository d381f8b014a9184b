package analyses

// Rejection reason codes, stable across the API.
const (
	ReasonFileTooLarge     = "FILE_TOO_LARGE"
	ReasonEmptyFile        = "EMPTY_FILE"
	ReasonUnsupportedType  = "UNSUPPORTED_TYPE"
	ReasonInvalidSignature = "INVALID_SIGNATURE"
	ReasonInvalidFilename  = "INVALID_FILENAME"
	ReasonUnreadable       = "UNREADABLE_DOCUMENT"
	ReasonRateLimited      = "RATE_LIMITED"
	ReasonQuotaExceeded    = "QUOTA_EXCEEDED"
	ReasonServerError      = "SERVER_ERROR"
)

// Rejection is a policy or validation denial. It is an expected outcome,
// not a fault: the HTTP layer maps it to a 4xx (or 500 for server
// errors) with the reason as the error type.
type Rejection struct {
	Reason     string
	Message    string
	RetryAfter int // seconds, only for rate limiting
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(reason, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}
