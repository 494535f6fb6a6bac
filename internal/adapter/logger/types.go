package logger

import (
	"errors"
	"fmt"
)

// ErrorInfo is the shape of the "error" field of a log line. Chain lists
// the messages of wrapped errors, outermost first.
type ErrorInfo struct {
	Msg   string   `json:"msg"`
	Type  string   `json:"type"`
	Chain []string `json:"chain,omitempty"`
}

func newErrorInfo(err error) ErrorInfo {
	info := ErrorInfo{Msg: err.Error(), Type: fmt.Sprintf("%T", err)}
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(inner) {
		info.Chain = append(info.Chain, inner.Error())
	}
	return info
}
