package auth

import (
	"context"
	"fmt"
)

// StrategyKind selects how credentials are verified. The set is closed and
// dispatched explicitly; form auth is the only variant today.
type StrategyKind int

const (
	// StrategyForm verifies an email/password pair from a form post.
	StrategyForm StrategyKind = iota
)

// Authenticator dispatches authentication to a concrete strategy.
type Authenticator struct {
	strategy StrategyKind
	creds    *Service
}

// NewAuthenticator constructs an Authenticator for the given strategy.
func NewAuthenticator(strategy StrategyKind, creds *Service) *Authenticator {
	return &Authenticator{strategy: strategy, creds: creds}
}

// Authenticate verifies the submitted credentials and returns the user.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*User, error) {
	switch a.strategy {
	case StrategyForm:
		return a.creds.VerifyLogin(ctx, email, password)
	default:
		return nil, fmt.Errorf("auth: unknown strategy %d", a.strategy)
	}
}
