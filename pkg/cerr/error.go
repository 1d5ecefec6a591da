package cerr

import (
	"errors"
	"fmt"
	"runtime"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"

	"github.com/kazz187/taskforge/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string          // returned to the caller together with Code
	Err     error           // logged only
	Stack   string          // captured for error-level codes
	Details []proto.Message // returned to the caller
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.ConnectCodeToLevel(code.ConnectCode()) == clog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func NewErrorWithDetails(code Code, msg string, underlying error, details []proto.Message) *Error {
	err := NewError(code, msg, underlying)
	err.Details = details
	return err
}

// NewKindError builds an error whose first detail carries kind as its rule id,
// so clients can tell apart errors that share a code.
func NewKindError(code Code, kind, msg string, underlying error) *Error {
	err := NewError(code, msg, underlying)
	_ = err.AddDetailMessageWithCode(msg, kind)
	return err
}

func (e *Error) AddDetailError(err proto.Message) {
	e.Details = append(e.Details, err)
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) AddDetailMessage(msg string) error {
	e.Details = append(e.Details, &validate.Violation{
		Message: &msg,
	})
	return e
}

func (e *Error) AddDetailMessageWithCode(msg string, code string) error {
	e.Details = append(e.Details, &validate.Violation{
		Message: &msg,
		RuleId:  &code,
	})
	return e
}

// AddFieldViolation records an invalid request field.
func (e *Error) AddFieldViolation(field, msg string) error {
	e.Details = append(e.Details, &validate.Violation{
		Message: &msg,
		RuleId:  &field,
	})
	return e
}

// Kind is the rule id of the first violation detail, or "".
func (e *Error) Kind() string {
	for _, d := range e.Details {
		if v, ok := d.(*validate.Violation); ok && v.GetRuleId() != "" {
			return v.GetRuleId()
		}
	}
	return ""
}

func (e *Error) ConnectError() *connect.Error {
	connectErr := connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
	for _, detailMsg := range e.Details {
		detail, err := connect.NewErrorDetail(detailMsg)
		if err != nil {
			continue
		}
		connectErr.AddDetail(detail)
	}
	return connectErr
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

// KindOf returns the error kind carried by err. It understands both *Error and
// *connect.Error, so clients can inspect errors received over the wire.
func KindOf(err error) string {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind()
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		for _, d := range connectErr.Details() {
			val, derr := d.Value()
			if derr != nil {
				continue
			}
			if v, ok := val.(*validate.Violation); ok && v.GetRuleId() != "" {
				return v.GetRuleId()
			}
		}
	}
	return ""
}
