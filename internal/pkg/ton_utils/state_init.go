package ton_utils

import (
	"bytes"
	"encoding/hex"
	"errors"

	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/wallet"
)

var knownWalletHashes = map[string]wallet.Version{}

func init() {
	for i := wallet.Version(0); i <= wallet.V4R2; i++ {
		hash := wallet.GetCodeHashByVer(i)
		knownWalletHashes[hex.EncodeToString(hash[:])] = i
	}
}

// ParseStateInit extracts the wallet public key from a base64 BoC state init.
// Only known wallet contract versions are accepted.
func ParseStateInit(stateInit string) ([]byte, error) {
	cells, err := boc.DeserializeBocBase64(stateInit)
	if err != nil {
		return nil, err
	}
	if len(cells) != 1 {
		return nil, errors.New("invalid state init boc")
	}

	var state tlb.StateInit
	err = tlb.Unmarshal(cells[0], &state)
	if err != nil {
		return nil, err
	}
	if !state.Data.Exists || !state.Code.Exists {
		return nil, errors.New("empty state init")
	}

	codeHash, err := state.Code.Value.Value.Hash()
	if err != nil {
		return nil, err
	}
	version, ok := knownWalletHashes[hex.EncodeToString(codeHash)]
	if !ok {
		return nil, errors.New("unknown wallet contract")
	}

	var pubKey tlb.Bits256
	switch version {
	case wallet.V1R1, wallet.V1R2, wallet.V1R3, wallet.V2R1, wallet.V2R2:
		var data wallet.DataV1V2
		err = tlb.Unmarshal(&state.Data.Value.Value, &data)
		if err != nil {
			return nil, err
		}
		pubKey = data.PublicKey
	case wallet.V3R1, wallet.V3R2, wallet.V4R1, wallet.V4R2:
		var data wallet.DataV3
		err = tlb.Unmarshal(&state.Data.Value.Value, &data)
		if err != nil {
			return nil, err
		}
		pubKey = data.PublicKey
	default:
		return nil, errors.New("unsupported wallet version")
	}

	return pubKey[:], nil
}

// CompareStateInitWithAddress checks the state init hash matches the claimed
// account address.
func CompareStateInitWithAddress(a tongo.AccountID, stateInit string) (bool, error) {
	cells, err := boc.DeserializeBocBase64(stateInit)
	if err != nil {
		return false, err
	}
	if len(cells) != 1 {
		return false, errors.New("invalid state init boc")
	}
	h, err := cells[0].Hash()
	if err != nil {
		return false, err
	}
	return bytes.Equal(h, a.Address[:]), nil
}
