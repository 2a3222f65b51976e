package workflow

import (
	"errors"
	"reflect"
)

// Envelope is the uniform result returned to callers.
//
// A batch that ran to completion with some failed items reports Success with
// an Error of KindPartialBatch and its Data, so callers can tell "failed to
// start" apart from "completed with N of M successes". A failed operation that
// still produced data, such as a redemption whose report could not be stored,
// keeps it.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Result builds an envelope from an operation's return values. Errors that are
// not already categorised are classified with KindOf.
func Result(data interface{}, err error) Envelope {
	if err == nil {
		return Envelope{Success: true, Data: data}
	}
	var we *Error
	if !errors.As(err, &we) {
		we = &Error{Kind: KindOf(err), Message: err.Error()}
	}
	if we.Kind == KindPartialBatch {
		return Envelope{Success: true, Data: data, Error: we}
	}
	env := Envelope{Success: false, Error: we}
	if !isNil(data) {
		env.Data = data
	}
	return env
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
