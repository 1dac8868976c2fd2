package services

import (
	"errors"
	"fmt"
)

// 错误分类哨兵，handlers 据此映射 HTTP 状态码
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrDuplicate        = errors.New("duplicate resource")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrTransaction      = errors.New("transaction failed")
)

// OpError 携带操作上下文（操作名、帖子、用户）的错误。
// Msg 面向调用方，Cause 保留底层存储错误仅用于日志，不外泄。
type OpError struct {
	Op     string
	PostID uint
	UserID uint
	Kind   error
	Msg    string
	Cause  error
}

func (e *OpError) Error() string {
	s := fmt.Sprintf("%s (post=%d user=%d): %s", e.Op, e.PostID, e.UserID, e.Msg)
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *OpError) Unwrap() error {
	return e.Kind
}

func opErr(op string, postID, userID uint, kind error, msg string) *OpError {
	return &OpError{Op: op, PostID: postID, UserID: userID, Kind: kind, Msg: msg}
}

// txErr 包装事务内的存储错误，统一归类为 ErrTransaction
func txErr(op string, postID, userID uint, cause error) *OpError {
	return &OpError{
		Op:     op,
		PostID: postID,
		UserID: userID,
		Kind:   ErrTransaction,
		Msg:    "storage operation failed",
		Cause:  cause,
	}
}
