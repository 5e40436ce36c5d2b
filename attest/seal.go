package attest

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/nacl/secretbox"
)

// The attestation sits in shared-device storage; sealing it keeps another
// profile on the same machine from reading or swapping the license code.

const nonceSize = 24

func seal(key *[32]byte, plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, key), nil
}

func unseal(key *[32]byte, boxed []byte) ([]byte, error) {
	if len(boxed) < nonceSize {
		return nil, errors.New("attest: sealed value too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], boxed[:nonceSize])
	out, ok := secretbox.Open(nil, boxed[nonceSize:], &nonce, key)
	if !ok {
		return nil, errors.New("attest: seal verification failed")
	}
	return out, nil
}

// Fingerprint is a short stable identifier for an attestation, safe to log.
// It never exposes the code itself.
func Fingerprint(code, ownerEmail string) string {
	sum := sha256.Sum256([]byte(code + "|" + ownerEmail))
	return base58.Encode(sum[:])[:12]
}
