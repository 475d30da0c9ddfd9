package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// StateOverrideEntry replaces parts of one account for the duration of a
// single simulated call. Field names and encoding follow the standard
// eth_call state override object.
type StateOverrideEntry struct {
	Code      hexutil.Bytes               `json:"code,omitempty"`
	Balance   *hexutil.Big                `json:"balance,omitempty"`
	StateDiff map[common.Hash]common.Hash `json:"stateDiff,omitempty"`
}

// StateOverrideSet maps account addresses to their overrides. Applied
// atomically for one call and discarded after.
type StateOverrideSet map[common.Address]StateOverrideEntry
