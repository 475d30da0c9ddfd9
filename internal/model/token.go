package model

import "github.com/ethereum/go-ethereum/common"

// TokenDescriptor is a resolved token identity. Native is true for the
// chain's native coin, which has no contract address.
type TokenDescriptor struct {
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
	Native   bool           `json:"native,omitempty"`
}

// Equal compares descriptors by canonical address; native descriptors are
// equal only to other native descriptors.
func (d TokenDescriptor) Equal(other TokenDescriptor) bool {
	if d.Native || other.Native {
		return d.Native == other.Native
	}
	return d.Address == other.Address
}

// DirectoryEntry is one token listing in an external symbol directory.
// Rank orders entries for one symbol when the directory ranks listings;
// zero means unranked.
type DirectoryEntry struct {
	Address  common.Address
	Decimals uint8
	Symbol   string
	Rank     int
}
