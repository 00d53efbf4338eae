package auth

// Claims representa la identidad autenticada (principal) extraída del token.
type Claims struct {
	UserID string
	Email  string
}

// Token es la credencial opaca que el cliente reenvía como Bearer.
type Token struct {
	Value     string
	ExpiresIn int64 // segundos
}
