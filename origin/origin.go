// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

/*
The origin package models who is calling into the handler and the capability checks applied to them.

An Origin is either a signed account, root, or none. Calls are gated by an EnsureOrigin strategy
that either yields the authenticated account or fails with ErrBadOrigin.
*/
package origin

import (
	"errors"
	"fmt"

	utils "github.com/chainx-org/AssetHandler/shared/substrate"
)

var ErrBadOrigin = errors.New("bad origin")

type Kind uint8

const (
	None Kind = iota
	Signed
	Root
)

func (k Kind) String() string {
	switch k {
	case Signed:
		return "signed"
	case Root:
		return "root"
	default:
		return "none"
	}
}

type Origin struct {
	Kind Kind
	Who  utils.AccountId
}

func NewSigned(who utils.AccountId) Origin {
	return Origin{Kind: Signed, Who: who}
}

func NewRoot() Origin {
	return Origin{Kind: Root}
}

func NewNone() Origin {
	return Origin{Kind: None}
}

func (o Origin) String() string {
	if o.Kind == Signed {
		return fmt.Sprintf("signed(%s)", o.Who)
	}
	return o.Kind.String()
}

// EnsureOrigin is a capability check over an Origin.
type EnsureOrigin interface {
	EnsureOrigin(o Origin) (utils.AccountId, error)
}

// EnsureSigned accepts any signed origin.
type EnsureSigned struct{}

func (EnsureSigned) EnsureOrigin(o Origin) (utils.AccountId, error) {
	if o.Kind != Signed {
		return utils.AccountId{}, ErrBadOrigin
	}
	return o.Who, nil
}

// EnsureRoot accepts only the root origin.
type EnsureRoot struct{}

func (EnsureRoot) EnsureOrigin(o Origin) (utils.AccountId, error) {
	if o.Kind != Root {
		return utils.AccountId{}, ErrBadOrigin
	}
	return utils.AccountId{}, nil
}

// EnsureSignedBy accepts a signed origin whose account is a member of the set.
type EnsureSignedBy struct {
	members map[utils.AccountId]struct{}
}

func NewEnsureSignedBy(members ...utils.AccountId) *EnsureSignedBy {
	e := &EnsureSignedBy{members: make(map[utils.AccountId]struct{}, len(members))}
	for _, m := range members {
		e.members[m] = struct{}{}
	}
	return e
}

func (e *EnsureSignedBy) EnsureOrigin(o Origin) (utils.AccountId, error) {
	if o.Kind != Signed {
		return utils.AccountId{}, ErrBadOrigin
	}
	if _, ok := e.members[o.Who]; !ok {
		return utils.AccountId{}, ErrBadOrigin
	}
	return o.Who, nil
}

// EitherOf accepts the origin if any strategy does, trying them in order.
type EitherOf []EnsureOrigin

func (e EitherOf) EnsureOrigin(o Origin) (utils.AccountId, error) {
	for _, s := range e {
		if who, err := s.EnsureOrigin(o); err == nil {
			return who, nil
		}
	}
	return utils.AccountId{}, ErrBadOrigin
}
