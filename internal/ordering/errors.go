package ordering

import (
	"errors"
	"fmt"
)

// Kind определяет категорию доменной ошибки; по ней HTTP-слой выбирает статус.
type Kind string

const (
	KindMalformedRequest        Kind = "MalformedRequest"
	KindEmptySelection          Kind = "EmptySelection"
	KindUnknownEntity           Kind = "UnknownEntity"
	KindNotVisible              Kind = "NotVisible"
	KindIncompleteMenuSelection Kind = "IncompleteMenuSelection"
	KindForeignSelection        Kind = "ForeignSelection"
	KindNotFound                Kind = "NotFound"
	KindForbidden               Kind = "Forbidden"
	KindConflict                Kind = "Conflict"
	KindUnauthorized            Kind = "Unauthorized"
)

// Error carries a kind and a client-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Is позволяет сравнивать по виду: errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf возвращает вид доменной ошибки или "" для любых других ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
