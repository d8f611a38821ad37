package game

import (
	"errors"

	"github.com/vlbabney57/GameCrypt-Engine/pkg/gateway"
)

var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrSignatureRejected  = errors.New("signature rejected")
	ErrGatewayUnavailable = gateway.ErrUnavailable
	ErrVersionConflict    = gateway.ErrVersionConflict
	ErrUnknownField       = errors.New("unknown field")
	ErrUnknownTab         = errors.New("unknown tab")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrNoSelection        = errors.New("no player selected")
	ErrFormIncomplete     = errors.New("player name, hp, atk and def are required")
	ErrCreateInFlight     = errors.New("a player is already being created")
	ErrDecryptInFlight    = errors.New("a decrypt is already in progress")
	ErrClosed             = errors.New("service closed")
)
