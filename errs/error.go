package errs

import (
	"errors"
	"fmt"
	"strings"
)

// CodeError 带错误码的错误，错误码原样写进回复报文
type CodeError interface {
	error
	Code() int32
	Print(extras ...string) CodeError
	Printf(format string, args ...any) CodeError
	Wrap(cause error) CodeError
	Is(error) bool
}

type codeError struct {
	code   int32
	name   string // 如CAPACITY_EXHAUSTED
	detail string
	cause  error
}

// 已登记的错误码，只在包初始化时写入
var registry = map[int32]*codeError{}

func register(code int32, name string) CodeError {
	e := &codeError{code: code, name: name}
	registry[code] = e
	return e
}

func CreateCodeError(code int32, name string) CodeError {
	return &codeError{code: code, name: name}
}

// FromCode 按错误码还原，未登记的错误码也保留数值
func FromCode(code int32) CodeError {
	if e, ok := registry[code]; ok {
		return e
	}
	return CreateCodeError(code, fmt.Sprintf("CODE_%d", code))
}

// WrapError 返回错误链上第一个CodeError，没有时归为Unknown
func WrapError(err error) CodeError {
	if err == nil {
		return nil
	}
	var ce CodeError
	if errors.As(err, &ce) {
		return ce
	}
	return Unknown.Wrap(err)
}

// CodeOf nil对应ErrCode_OK
func CodeOf(err error) int32 {
	if err == nil {
		return ErrCode_OK
	}
	return WrapError(err).Code()
}

func (e *codeError) Code() int32 {
	return e.code
}

func (e *codeError) Error() string {
	var b strings.Builder
	b.WriteString(e.name)
	if e.detail != "" {
		b.WriteByte(',')
		b.WriteString(e.detail)
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *codeError) Unwrap() error {
	return e.cause
}

func (e *codeError) with(detail string) *codeError {
	c := *e
	if c.detail == "" {
		c.detail = detail
	} else {
		c.detail += "," + detail
	}
	return &c
}

func (e *codeError) Print(extras ...string) CodeError {
	if len(extras) == 0 {
		return e
	}
	return e.with(strings.Join(extras, ","))
}

func (e *codeError) Printf(format string, args ...any) CodeError {
	if len(format) == 0 {
		return e
	}
	return e.with(fmt.Sprintf(format, args...))
}

func (e *codeError) Wrap(cause error) CodeError {
	if cause == nil {
		return e
	}
	c := *e
	c.cause = cause
	return &c
}

// Is 错误码相同即视为同一种错误
func (e *codeError) Is(target error) bool {
	if x, ok := target.(*codeError); ok {
		return x.code == e.code
	}
	return false
}
