package tokenizer

import "github.com/golang-jwt/jwt/v5"

// ChallengeClaims combines standard claims with challenge-specific ones.
// The wallet and issue time live in the claims so the signed payload itself
// binds the claimed wallet to this issuance; the random nonce makes two
// issuances distinct even within the same instant.
type ChallengeClaims struct {
	jwt.RegisteredClaims
	Wallet string `json:"wallet"`
	Nonce  string `json:"nonce"`
}
