package types

const (
	ContextUserKey = "user"
	ContextLangKey = "lang"
)

// TokenCookie carries the bearer token for browser clients.
const TokenCookie = "token"
