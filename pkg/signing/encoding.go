// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-biokey.
//
// go-biokey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package signing

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/jeremyhahn/go-biokey/pkg/types"
)

// uncompressedPointLen is the X9.62 uncompressed encoding length for P-256:
// one format byte plus two 32-byte coordinates.
const uncompressedPointLen = 65

// EncodePublicKey encodes an ECDSA public key into the X9.62 uncompressed
// point format (0x04 || X || Y) used as the external key identifier.
func EncodePublicKey(publicKey *ecdsa.PublicKey) (types.PublicKey, error) {
	if publicKey == nil || publicKey.X == nil || publicKey.Y == nil {
		return nil, ErrInvalidPublicKey
	}
	if publicKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: unsupported curve", ErrInvalidPublicKey)
	}

	byteLen := (publicKey.Curve.Params().BitSize + 7) / 8
	encoded := make([]byte, 1+2*byteLen)
	encoded[0] = 4 // uncompressed point format
	publicKey.X.FillBytes(encoded[1 : 1+byteLen])
	publicKey.Y.FillBytes(encoded[1+byteLen:])
	return encoded, nil
}

// DecodePublicKey decodes an X9.62 uncompressed point encoding into an ECDSA
// public key, validating that the point lies on the P-256 curve.
func DecodePublicKey(publicKey types.PublicKey) (*ecdsa.PublicKey, error) {
	if len(publicKey) != uncompressedPointLen || publicKey[0] != 4 {
		return nil, ErrInvalidPublicKey
	}

	curve := elliptic.P256()
	byteLen := (curve.Params().BitSize + 7) / 8
	x := new(big.Int).SetBytes(publicKey[1 : 1+byteLen])
	y := new(big.Int).SetBytes(publicKey[1+byteLen:])

	if x.Cmp(curve.Params().P) >= 0 || y.Cmp(curve.Params().P) >= 0 {
		return nil, ErrInvalidPublicKey
	}
	if !curve.IsOnCurve(x, y) {
		return nil, ErrInvalidPublicKey
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}
