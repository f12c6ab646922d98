package resp

import (
	"encoding/json"
)

var _ Error = (*err)(nil)

type Error interface {
	WithData(data interface{}) Error
	ToString() string
}

type err struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

func NewError(code int, msg string) Error {
	return &err{
		Code: code,
		Msg:  msg,
		Data: nil,
	}
}

// WithData returns a copy carrying data; the shared code values stay untouched.
func (e *err) WithData(data interface{}) Error {
	return &err{Code: e.Code, Msg: e.Msg, Data: data}
}

func (e *err) ToString() string {
	raw, _ := json.Marshal(e)
	return string(raw)
}
