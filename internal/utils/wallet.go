package utils

import (
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidAddress is returned when a wallet address is not a 0x-prefixed
// 40-character hex string.
var ErrInvalidAddress = errors.New("invalid wallet address")

const hexDigits = "0123456789abcdefABCDEF"

// NormalizeWalletAddress validates the shape of a wallet address and
// returns its canonical lowercase form. The lowercase form is what gets
// stored and used as the lookup/idempotency key; checksummed display forms
// are produced separately by ChecksumAddress.
func NormalizeWalletAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return "", ErrInvalidAddress
	}
	body := addr[2:]
	for _, c := range body {
		if !strings.ContainsRune(hexDigits, c) {
			return "", ErrInvalidAddress
		}
	}
	return "0x" + strings.ToLower(body), nil
}

// ChecksumAddress renders a normalized address in EIP-55 mixed-case form.
// Each hex letter is uppercased when the corresponding nibble of the
// Keccak-256 hash of the lowercase address body is >= 8.
func ChecksumAddress(addr string) (string, error) {
	norm, err := NormalizeWalletAddress(addr)
	if err != nil {
		return "", err
	}
	body := norm[2:]
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(body))
	sum := h.Sum(nil)

	out := []byte(body)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}
	return "0x" + string(out), nil
}

// PlaceholderName derives a display name for a freshly created wallet
// profile from a truncated prefix of the address. The wallet path has no
// user-supplied name at creation time.
func PlaceholderName(normalizedAddr string) string {
	if len(normalizedAddr) < 10 {
		return "User " + normalizedAddr
	}
	return "User " + normalizedAddr[:10]
}
