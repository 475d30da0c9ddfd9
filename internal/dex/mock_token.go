package dex

import "github.com/ethereum/go-ethereum/common/hexutil"

// mockTokenRuntimeHex is the runtime bytecode injected over the input
// token during swap simulation. It keeps standard balance accounting in
// the slot-0 balances mapping but its transferFrom neither checks nor
// decrements any allowance, so the router can pull funds from the wallet
// without a prior approve. allowance and totalSupply report 2^256-1,
// approve is a no-op returning true, decimals returns 18.
//
// Selector dispatch, then one subroutine per function:
//   balanceOf(address)                  sload(keccak256(pad32(holder) ++ pad32(0)))
//   transferFrom(address,address,uint)  move balance, ignore allowance
//   transfer(address,uint)              move balance from caller
const mockTokenRuntimeHex = "0x60003560e01c" +
	"806370a082311461005757" + // balanceOf
	"806323b872dd1461007157" + // transferFrom
	"8063a9059cbb146100a857" + // transfer
	"8063095ea7b3146100dd57" + // approve
	"8063dd62ed3e146100e857" + // allowance
	"806318160ddd146100e857" + // totalSupply
	"8063313ce567146100f457" + // decimals
	"600080fd" +
	"5b600435600052600060205260406000205460005260206000f3" +
	"5b6004356000526000602052604060002080546044359003905560243560005260406000208054604435019055600160005260206000f3" +
	"5b336000526000602052604060002080546024359003905560043560005260406000208054602435019055600160005260206000f3" +
	"5b600160005260206000f3" +
	"5b60001960005260206000f3" +
	"5b601260005260206000f3"

// MockTokenRuntime returns the mock token runtime bytecode.
func MockTokenRuntime() []byte {
	return hexutil.MustDecode(mockTokenRuntimeHex)
}
