package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Encode serializes a spec to the persisted saved-search form,
// base64 over JSON.
func Encode(spec *Spec) (string, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode parses a persisted saved-search payload. The returned spec is
// always usable: payloads written by the retired serialization format, or
// any other undecodable input, yield the default spec together with an
// error the caller may log or redirect on.
func Decode(encoded string) (*Spec, error) {
	raw, err := decodeBase64(stripLegacyArtifacts(encoded))
	if err != nil {
		return DefaultSpec(), fmt.Errorf("saved query is not base64: %w", err)
	}
	spec := &Spec{}
	if err := json.Unmarshal(raw, spec); err != nil {
		return DefaultSpec(), fmt.Errorf("saved query is not JSON: %w", err)
	}
	return spec, nil
}

// stripLegacyArtifacts removes the b'...' byte-literal wrapper an earlier
// writer leaked into stored queries, plus any whitespace an even older
// line-wrapping encoder inserted.
func stripLegacyArtifacts(encoded string) string {
	s := strings.TrimSpace(encoded)
	for _, prefix := range []string{"b'", `b"`} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			s = strings.TrimSuffix(s, prefix[1:])
			break
		}
	}
	return strings.Join(strings.Fields(s), "")
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.URLEncoding,
		base64.StdEncoding,
		base64.RawURLEncoding,
		base64.RawStdEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(s)
		if err == nil {
			return raw, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
