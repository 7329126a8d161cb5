package rpcerr

import "fmt"

// Error is a provider-standard RPC error. Codes follow EIP-1474 for JSON-RPC
// level failures and EIP-1193 for provider-level ones, so dApps built against
// other wallets keep working.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Data: e.Data}
}

// Decode converts an arbitrary error into an RPC error. Known errors pass
// through, anything else becomes an internal error with the original text.
func Decode(err error) *Error {
	if err == nil {
		return nil
	}

	if typed, ok := err.(*Error); ok {
		return typed
	}
	return Internal.WithMessage(err.Error())
}

// JSON-RPC errors (EIP-1474)
var (
	ParseError     = &Error{Code: -32700, Message: "Parse error"}
	InvalidRequest = &Error{Code: -32600, Message: "Invalid request"}
	MethodNotFound = &Error{Code: -32601, Message: "Method not found"}
	InvalidParams  = &Error{Code: -32602, Message: "Invalid params"}
	Internal       = &Error{Code: -32603, Message: "Internal error"}
)

// Provider errors (EIP-1193 / EIP-3326)
var (
	UserRejected      = &Error{Code: 4001, Message: "User rejected the request"}
	Unauthorized      = &Error{Code: 4100, Message: "The requested account and/or method has not been authorized by the user"}
	UnsupportedMethod = &Error{Code: 4200, Message: "The requested method is not supported by this provider"}
	Disconnected      = &Error{Code: 4900, Message: "The provider is disconnected"}
	UnrecognizedChain = &Error{Code: 4902, Message: "Unrecognized chain ID"}
)

// InvalidParamsf builds an invalid-params error with a formatted message.
func InvalidParamsf(format string, args ...interface{}) *Error {
	return InvalidParams.WithMessage(fmt.Sprintf(format, args...))
}
