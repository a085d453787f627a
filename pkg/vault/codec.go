package vault

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/codevault/codevault/pkg/domain"
)

// TokenTTL is the fixed validity window of an encoded code.
const TokenTTL = 365 * 24 * time.Hour

// codeClaims is the signed envelope a raw code is stored in. The key
// version lets a failed decode be attributed to rotation instead of
// corruption.
type codeClaims struct {
	jwt.RegisteredClaims
	Code       string `json:"code"`
	KeyVersion int    `json:"key_version"`
}

// EncodeCode wraps a raw backup code in an HS256 JWT signed with the
// user's current key. The token is the only form the code takes at rest.
// Tokens are self-describing: verification needs nothing beyond the key.
func EncodeCode(raw string, key domain.CodeKey) (string, error) {
	if raw == "" {
		return "", domain.ErrEmptyCode
	}

	now := time.Now()
	claims := codeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Code:       raw,
		KeyVersion: key.Version,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(key.Secret))
}

// DecodeCode verifies a single token against the key and returns the
// embedded raw code. On failure the second return value classifies the
// cause: the signing key rotated since encoding, the fixed validity
// window elapsed, or the token is not a well-formed envelope at all.
func DecodeCode(tokenString string, key domain.CodeKey) (string, domain.DecodeFailReason, error) {
	token, err := jwt.ParseWithClaims(tokenString, &codeClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return []byte(key.Secret), nil
	})
	if err != nil {
		return "", classifyDecodeError(tokenString, key, err), err
	}

	claims, ok := token.Claims.(*codeClaims)
	if !ok || !token.Valid {
		return "", domain.DecodeFailMalformed, domain.ErrInvalidToken
	}

	return claims.Code, "", nil
}

// DecodeCodes is a best-effort bulk decode. Each entry that verifies has
// its token replaced by the recovered raw code; entries that fail pass
// through with the stored token unchanged and the failure logged, so one
// undecodable code never blocks display of its siblings. Input order and
// one-to-one correspondence are preserved.
func DecodeCodes(logger *slog.Logger, codes []domain.Code, key domain.CodeKey) []domain.DecodedCode {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]domain.DecodedCode, len(codes))
	for i, c := range codes {
		out[i] = domain.DecodedCode{Code: c, Value: c.Token}

		raw, reason, err := DecodeCode(c.Token, key)
		if err != nil {
			logger.Warn("failed to decode stored code",
				"code_id", c.ID,
				"domain_id", c.DomainID,
				"reason", reason,
			)
			out[i].FailReason = reason
			continue
		}

		out[i].Value = raw
		out[i].Decoded = true
	}
	return out
}

// classifyDecodeError maps a verification failure to a DecodeFailReason.
// A signature mismatch on a token that carries an older key version is
// attributed to rotation; everything else unverifiable is malformed.
func classifyDecodeError(tokenString string, key domain.CodeKey, err error) domain.DecodeFailReason {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domain.DecodeFailExpired
	}
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		claims := &codeClaims{}
		if _, _, perr := jwt.NewParser().ParseUnverified(tokenString, claims); perr == nil {
			if claims.KeyVersion < key.Version {
				return domain.DecodeFailRotated
			}
		}
		return domain.DecodeFailMalformed
	}
	return domain.DecodeFailMalformed
}
