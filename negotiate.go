package staticzip

import (
	"strconv"
	"strings"
)

// acceptedEncodings is the parsed form of an Accept-Encoding header.
// Only acceptance matters here: client q-values beyond zero/nonzero
// are ignored because the server preference order breaks ties.
type acceptedEncodings struct {
	tokens   map[string]bool // token -> accepted (false means q=0 refusal)
	wildcard bool            // "*" present with q > 0
}

// accepts reports whether the client will take the given
// content-coding token
func (a acceptedEncodings) accepts(token string) bool {
	if v, ok := a.tokens[token]; ok {
		return v
	}
	return a.wildcard
}

// parseAcceptEncoding parses an Accept-Encoding header value. A
// malformed q parameter is treated as q=1, matching the lenient
// handling browsers get from most servers.
func parseAcceptEncoding(header string) acceptedEncodings {
	out := acceptedEncodings{tokens: make(map[string]bool)}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		token := part
		q := 1.0
		if idx := strings.IndexByte(part, ';'); idx >= 0 {
			token = strings.TrimSpace(part[:idx])
			for _, param := range strings.Split(part[idx+1:], ";") {
				key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
				if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
					continue
				}
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
					q = parsed
				}
			}
		}
		token = strings.ToLower(token)
		if token == "*" {
			out.wildcard = q > 0
			continue
		}
		out.tokens[token] = q > 0
	}
	return out
}
