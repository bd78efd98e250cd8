package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SecureHashField is the payload field carrying the signature itself. It is
// never part of the signed string.
const SecureHashField = "pp_SecureHash"

// SecureHash computes the processor's payload signature: field names sorted
// byte-wise ascending, values empty after trimming dropped, the salt
// prepended to the joined values and reused as the HMAC-SHA256 key. The
// doubled use of the salt is the processor's scheme and must stay
// bit-for-bit as is.
func SecureHash(fields map[string]string, salt string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == SecureHashField {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(salt)
	for _, name := range names {
		value := strings.TrimSpace(fields[name])
		if value == "" {
			continue
		}
		sb.WriteString("&")
		sb.WriteString(value)
	}

	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(sb.String()))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}

// VerifySecureHash recomputes the signature over the received fields and
// compares it to the received pp_SecureHash, case-insensitively and in
// constant time. A payload without a signature field never verifies.
func VerifySecureHash(fields map[string]string, salt string) bool {
	received := strings.ToUpper(strings.TrimSpace(fields[SecureHashField]))
	if received == "" {
		return false
	}
	expected := SecureHash(fields, salt)
	return hmac.Equal([]byte(expected), []byte(received))
}
