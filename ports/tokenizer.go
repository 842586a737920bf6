package ports

import "github.com/human-tech/signatory/core"

// Tokenizer converts between challenges and their signed token form.
type Tokenizer interface {
	ChallengeToToken(challenge *core.Challenge) (string, error)
	TokenToChallenge(token string) (*core.Challenge, error)
}
