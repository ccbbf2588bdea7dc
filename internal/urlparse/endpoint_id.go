package urlparse

import (
	"encoding/base64"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DecodeEndpointID decodes an opaque endpoint identifier into its
// human-readable form ("Controller/action" or "GET /path"). URL-safe base64
// is tried first, then standard base64. Decoding is best effort: a token
// whose decoding does not yield printable UTF-8 under any variant is
// returned unchanged, stripped of any invalid byte sequences. The
// printability check keeps short non-base64 tokens like "ABC", which the
// unpadded variants would otherwise decode to control bytes, verbatim.
func DecodeEndpointID(token string) string {
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		decoded, err := enc.DecodeString(token)
		if err == nil && printable(decoded) {
			return string(decoded)
		}
	}
	return strings.ToValidUTF8(token, "")
}

func printable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// EncodeEndpointID is the inverse of DecodeEndpointID, producing the
// URL-safe identifier the dashboard and the API use in paths.
func EncodeEndpointID(endpoint string) string {
	return base64.URLEncoding.EncodeToString([]byte(endpoint))
}
