package feature

import (
	"fmt"
	"slices"
)

type PlayerID string

type TokenKind uint8

const (
	Follower TokenKind = iota
	LargeFollower
	Builder
	Pig
)

func (k TokenKind) String() string {
	switch k {
	case Follower:
		return "follower"
	case LargeFollower:
		return "large-follower"
	case Builder:
		return "builder"
	case Pig:
		return "pig"
	}
	return fmt.Sprintf("token(%d)", uint8(k))
}

// ParseTokenKind accepts the names produced by TokenKind.String.
func ParseTokenKind(s string) (TokenKind, error) {
	for k := Follower; k <= Pig; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown token kind %q", ErrTokenNotAllowed, s)
}

// ControlWeight is what the token adds to its owner's majority.
func (k TokenKind) ControlWeight() int {
	switch k {
	case Follower:
		return 1
	case LargeFollower:
		return 2
	}
	return 0
}

// Token is a player piece; while deployed it belongs to the feature.
type Token struct {
	ID     string    `json:"id"`
	Player PlayerID  `json:"player"`
	Kind   TokenKind `json:"kind"`
}

func allowed(k TokenKind, f Kind) bool {
	switch k {
	case Builder:
		return f == City || f == Road
	case Pig:
		return f == Farm
	}
	return true
}

// AddOccupant deploys tok on the live feature id.
func (e *Engine) AddOccupant(id ID, tok Token) error {
	f, err := e.Get(id)
	if err != nil {
		return err
	}
	if f.retired {
		return fmt.Errorf("%w: %v", ErrFeatureRetired, f)
	}
	if !allowed(tok.Kind, f.kind) {
		return fmt.Errorf("%w: %v on %v", ErrTokenNotAllowed, tok.Kind, f.kind)
	}
	for _, live := range e.table.Live() {
		if slices.ContainsFunc(live.occupants, func(o Token) bool { return o.ID == tok.ID }) {
			return fmt.Errorf("%w: %s", ErrDuplicateToken, tok.ID)
		}
	}
	f.occupants = append(f.occupants, tok)
	return nil
}

// RemoveOccupant hands the token back to its owner.
func (e *Engine) RemoveOccupant(id ID, tokenID string) (Token, error) {
	f, err := e.Get(id)
	if err != nil {
		return Token{}, err
	}
	i := slices.IndexFunc(f.occupants, func(o Token) bool { return o.ID == tokenID })
	if i < 0 {
		return Token{}, fmt.Errorf("%w: %s on %v", ErrTokenNotFound, tokenID, f)
	}
	tok := f.occupants[i]
	f.occupants = slices.Delete(f.occupants, i, i+1)
	return tok, nil
}
