package ton_utils

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"time"

	"flipclub/internal/datastore/redis_store"
	"flipclub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/tonkeeper/tongo"
)

const (
	tonProofPrefix   = "ton-proof-item-v2/"
	tonConnectPrefix = "ton-connect"
	proofLifetime    = 24 * time.Hour
	nonceLifetime    = 6 * time.Hour
)

func nonceKey(address, nonce string) string {
	return fmt.Sprintf("nonce:%s:%s", address, nonce)
}

func SignatureVerify(pubkey ed25519.PublicKey, message, signature []byte) bool {
	return ed25519.Verify(pubkey, message, signature)
}

func ParseTonProofMessage(tp *models.TonProof) (*models.TonProofMessage, error) {
	var msg models.TonProofMessage

	addr, err := tongo.ParseAddress(tp.Address)
	if err != nil {
		return nil, err
	}
	sig, err := base64.StdEncoding.DecodeString(tp.Proof.Signature)
	if err != nil {
		return nil, err
	}

	msg.Workchain = addr.ID.Workchain
	msg.Address = addr.ID.Address[:]
	msg.Domain = tp.Proof.Domain
	msg.Timestamp = tp.Proof.Timestamp
	msg.Signature = sig
	msg.Payload = tp.Proof.Payload
	msg.StateInit = tp.Proof.StateInit
	return &msg, nil
}

func CreateMessage(message *models.TonProofMessage) ([]byte, error) {
	wc := make([]byte, 4)
	binary.BigEndian.PutUint32(wc, uint32(message.Workchain))

	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, uint64(message.Timestamp))

	dl := make([]byte, 4)
	binary.LittleEndian.PutUint32(dl, message.Domain.LengthBytes)
	m := []byte(tonProofPrefix)
	m = append(m, wc...)
	m = append(m, message.Address...)
	m = append(m, dl...)
	m = append(m, []byte(message.Domain.Value)...)
	m = append(m, ts...)
	m = append(m, []byte(message.Payload)...)
	messageHash := sha256.Sum256(m)
	fullMes := []byte{0xff, 0xff}
	fullMes = append(fullMes, []byte(tonConnectPrefix)...)
	fullMes = append(fullMes, messageHash[:]...)
	res := sha256.Sum256(fullMes)
	return res[:], nil
}

func CheckProof(ctx context.Context, dbRedis redis.UniversalClient, address tongo.AccountID, domain string, nonce string, tonProofReq *models.TonProofMessage) (bool, error) {
	if len(nonce) != 12 {
		return false, errors.New("invalid nonce")
	}

	if ok, err := CompareStateInitWithAddress(address, tonProofReq.StateInit); err != nil || !ok {
		return ok, err
	}

	pubKey, err := ParseStateInit(tonProofReq.StateInit)
	if err != nil {
		log.Printf("parse wallet state init error: %v\n", err)
		return false, err
	}

	if time.Now().After(time.Unix(tonProofReq.Timestamp, 0).Add(proofLifetime)) {
		return false, errors.New("proof has been expired")
	}

	key := nonceKey(address.String(), nonce)
	n, err := redis_store.GetSIWTNonce(ctx, dbRedis, key)
	if err == nil && n != "" {
		return false, errors.New("used nonce")
	}

	err = redis_store.SetSIWTNonce(ctx, dbRedis, key, nonce, nonceLifetime)
	if err != nil {
		return false, err
	}

	if tonProofReq.Domain.Value != domain {
		return false, fmt.Errorf("wrong domain: %v", tonProofReq.Domain)
	}

	mes, err := CreateMessage(tonProofReq)
	if err != nil {
		return false, err
	}

	return SignatureVerify(pubKey, mes, tonProofReq.Signature), nil
}
