package market

import "errors"

// Kind 业务错误分类，handler 层据此映射 HTTP 状态码和业务码
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidState      Kind = "invalid_state"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindInsufficientStock Kind = "insufficient_stock"
	KindSelfTrade         Kind = "self_trade"
	KindForbidden         Kind = "forbidden"
	KindRateLimited       Kind = "rate_limited"
	KindConflict          Kind = "conflict"
	KindReversalFailed    Kind = "reversal_failed"
)

// Error 带分类的业务错误；校验类错误是预期结果，不是异常
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Msg
}

// E constructs a market error with the given kind and message.
func E(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf returns the kind of err, or "" if err is not a market error.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

// IsKind reports whether err is a market error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
