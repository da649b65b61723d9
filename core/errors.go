package core

type ErrorMalformedToken struct {
}

func (e ErrorMalformedToken) Error() string {
	return "Malformed Token"
}

func NewErrorMalformedToken() ErrorMalformedToken {
	return ErrorMalformedToken{}
}

type ErrorInvalidToken struct {
}

func (e ErrorInvalidToken) Error() string {
	return "Invalid Token"
}

func NewErrorInvalidToken() ErrorInvalidToken {
	return ErrorInvalidToken{}
}

type ErrorStoreUnavailable struct {
}

func (e ErrorStoreUnavailable) Error() string {
	return "Store Unavailable"
}

func NewErrorStoreUnavailable() ErrorStoreUnavailable {
	return ErrorStoreUnavailable{}
}

type ErrorMalformedEvent struct {
}

func (e ErrorMalformedEvent) Error() string {
	return "Malformed Event"
}

func NewErrorMalformedEvent() ErrorMalformedEvent {
	return ErrorMalformedEvent{}
}

type ErrorNotFound struct {
}

func (e ErrorNotFound) Error() string {
	return "Not Found"
}

func NewErrorNotFound() ErrorNotFound {
	return ErrorNotFound{}
}
