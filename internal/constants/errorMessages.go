package constants

const (
	MsgShowNotFound        = "show not found"
	MsgShowDeleted         = "show deleted"
	MsgInvalidBody         = "invalid request body"
	MsgInvalidFilter       = "filter must be upcoming or past"
	MsgEmailNotConfigured  = "Email service not configured"
	MsgUnauthorized        = "unauthorized"
	MsgTooManyRequests     = "Too many requests"
	MsgInternalServerError = "internal server error"
)
