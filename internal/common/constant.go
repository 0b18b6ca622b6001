// Package common contains shared constants and sentinel errors used across
// TaskKeeper components.
package common

// AuthorizationHeaderName carries the bearer credential on every request.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is matched case-insensitively.
const BearerScheme = "bearer"

// User-visible messages. Error envelopes only ever carry one of these (or a
// ConflictError naming the client's own input).
const (
	MessageOK                  = "ok"
	MessageSignupSuccess       = "Signup successfully"
	MessageLoginSuccess        = "Login successfully"
	MessageLoginFailed         = "Wrong username or password, please try again"
	MessageLogoutSuccess       = "Logout successfully"
	MessageTokenMissing        = "Token is missing"
	MessageInvalidToken        = "Invalid token, please login again"
	MessageBadRequest          = "Bad Request"
	MessageNotFound            = "Not found"
	MessageInternalServerError = "Internal Server Error"

	MessageListCreated = "List created"
	MessageListDeleted = "List deleted"
	MessageListUpdated = "List updated"
	MessageTaskCreated = "Task created"
	MessageTaskDeleted = "Task deleted"
	MessageTaskUpdated = "Task updated"
)

// Pagination defaults for listing endpoints.
const (
	DefaultPageNum = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
	MaxPageNum     = 1_000_000
)

// MaxTextLength bounds list names and task summaries (VARCHAR(255) columns).
const MaxTextLength = 255
