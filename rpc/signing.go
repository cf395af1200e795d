package rpc

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"lendcore/crypto"
)

var (
	ErrBadSignature = errors.New("rpc: signature does not match sender")
	ErrBadNonce     = errors.New("rpc: unexpected nonce")
)

// CallDigest is the message a sender signs to authorise one invocation.
func CallDigest(to crypto.Address, method string, nonce uint64, input []byte) []byte {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return crypto.Keccak256(
		[]byte("lendcore/call"),
		[]byte(to.String()), []byte{0},
		[]byte(method), []byte{0},
		n[:],
		input,
	)
}

// SignCall builds CallParams signed by key.
func SignCall(key *crypto.PrivateKey, to crypto.Address, method string, nonce uint64, input []byte) (CallParams, error) {
	sig, err := key.Sign(CallDigest(to, method, nonce, input))
	if err != nil {
		return CallParams{}, err
	}
	return CallParams{
		From:      key.PubKey().Address().String(),
		To:        to.String(),
		Method:    method,
		Args:      hex.EncodeToString(input),
		Nonce:     nonce,
		Signature: hex.EncodeToString(sig),
	}, nil
}

// verify decodes p and checks that its signature recovers to From.
func (p CallParams) verify() (from, to crypto.Address, input []byte, err error) {
	if from, err = crypto.DecodeAddress(p.From); err != nil {
		return from, to, nil, fmt.Errorf("from: %w", err)
	}
	if to, err = crypto.DecodeAddress(p.To); err != nil {
		return from, to, nil, fmt.Errorf("to: %w", err)
	}
	if strings.TrimSpace(p.Method) == "" {
		return from, to, nil, errors.New("method required")
	}
	if input, err = decodeHex(p.Args); err != nil {
		return from, to, nil, fmt.Errorf("args: %w", err)
	}
	sig, err := decodeHex(p.Signature)
	if err != nil {
		return from, to, nil, fmt.Errorf("signature: %w", err)
	}
	signer, err := crypto.RecoverAddress(CallDigest(to, p.Method, p.Nonce, input), sig)
	if err != nil || !signer.Equal(from) {
		return from, to, nil, ErrBadSignature
	}
	return from, to, input, nil
}

func decodeHex(raw string) ([]byte, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if raw == "" {
		return nil, nil
	}
	return hex.DecodeString(raw)
}
