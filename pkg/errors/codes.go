package errors

type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeInvalidRequest  Code = "INVALID_REQUEST"
	CodeInvalidRoom     Code = "INVALID_ROOM"
	CodeNotInRoom       Code = "NOT_IN_ROOM"
	CodeFailed          Code = "FAILED"
)
