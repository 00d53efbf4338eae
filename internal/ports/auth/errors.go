package auth

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	CodeInvalidEmail    ErrorCode = "invalid_email"
	CodeWrongCredential ErrorCode = "wrong_credential"
	CodeUserNotFound    ErrorCode = "user_not_found"
	CodeRateLimited     ErrorCode = "rate_limited"
	CodeEmailInUse      ErrorCode = "email_in_use"
	CodeWeakPassword    ErrorCode = "weak_password"
	CodeInvalidToken    ErrorCode = "invalid_token"
	CodeGeneric         ErrorCode = "generic"
)

// Error es un fallo del proveedor de autenticación con código conocido.
type Error struct {
	Code  ErrorCode
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return "auth: " + string(e.Code) + ": " + e.Cause.Error()
	}
	return "auth: " + string(e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, cause error) *Error {
	return &Error{Code: code, Cause: cause}
}

// CodeOf devuelve el código de un error de auth; cualquier otro error es generic.
func CodeOf(err error) ErrorCode {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeGeneric
}

// Message devuelve el texto fijo que se muestra al usuario para cada código.
func Message(code ErrorCode) string {
	switch code {
	case CodeUserNotFound:
		return "No existe una cuenta con este email"
	case CodeWrongCredential:
		return "Credenciales inválidas. Verifica tu email y contraseña"
	case CodeInvalidEmail:
		return "Email inválido"
	case CodeRateLimited:
		return "Demasiados intentos fallidos. Intenta más tarde"
	case CodeEmailInUse:
		return "El email ya está en uso"
	case CodeWeakPassword:
		return "La contraseña debe tener al menos 6 caracteres"
	case CodeInvalidToken:
		return "Sesión inválida o expirada"
	default:
		return "Error de autenticación"
	}
}

// HTTPStatus mapea el código a un status HTTP.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeInvalidEmail, CodeWeakPassword:
		return http.StatusBadRequest
	case CodeWrongCredential, CodeUserNotFound, CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeEmailInUse:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
