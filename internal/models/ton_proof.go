package models

// TON Connect proof payload, posted by the wallet when a user links a wallet
// for withdrawals. Field names follow the ton-proof wire format.

type TonDomain struct {
	LengthBytes uint32 `json:"lengthBytes"`
	Value       string `json:"value"`
}

type TonMessageInfo struct {
	Timestamp int64     `json:"timestamp"`
	Domain    TonDomain `json:"domain"`
	Signature string    `json:"signature"`
	Payload   string    `json:"payload"`
	StateInit string    `json:"state_init"`
}

type TonProof struct {
	Address string         `json:"address"`
	Nonce   string         `json:"nonce"`
	Proof   TonMessageInfo `json:"proof"`
}

// TonProofMessage is the decoded form used for signature verification.
type TonProofMessage struct {
	Workchain int32
	Address   []byte
	Timestamp int64
	Domain    TonDomain
	Signature []byte
	Payload   string
	StateInit string
}
