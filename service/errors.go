package service

import "errors"

// 错误类别，handler 通过 errors.Is 映射为 HTTP 状态码
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
)

// Error 带用户可见文案的分类错误
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func NotFound(resource string) error {
	return &Error{kind: ErrNotFound, msg: resource + " not found"}
}

func Conflict(msg string) error {
	return &Error{kind: ErrConflict, msg: msg}
}

func Invalid(msg string) error {
	return &Error{kind: ErrInvalid, msg: msg}
}
