// Package symbol classifies raw ticker strings into the market convention
// the upstream expects.
package symbol

import (
	"regexp"
	"strings"
)

type Kind int

const (
	KindUS Kind = iota
	KindKRStock
	KindKRETFETN
)

func (k Kind) String() string {
	switch k {
	case KindKRStock:
		return "KR_STOCK"
	case KindKRETFETN:
		return "KR_ETF_ETN"
	default:
		return "US"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Classified is a requested symbol together with the form sent upstream.
type Classified struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
	Kind       Kind   `json:"kind"`
}

var (
	krStock  = regexp.MustCompile(`^\d{6}$`)
	krETFETN = regexp.MustCompile(`^\d{4}[0-9A-Z]{2}$`)
)

// krSuffixes are the exchange suffixes stripped before matching.
// KS: KOSPI, KQ: KOSDAQ.
var krSuffixes = []string{".KS", ".KQ"}

// Classify maps a raw ticker to its normalized upstream form.
//
// Six digit codes are KRX common stock and keep any market suffix.
// Four digits followed by two alphanumerics containing a letter are
// ETF/ETN short codes; the upstream rejects them with a suffix, so it is
// dropped. Everything else passes through untouched.
func Classify(raw string) Classified {
	original := strings.ToUpper(strings.TrimSpace(raw))
	base := original
	for _, sfx := range krSuffixes {
		if strings.HasSuffix(base, sfx) {
			base = strings.TrimSuffix(base, sfx)
			break
		}
	}

	switch {
	case krStock.MatchString(base):
		return Classified{Original: original, Normalized: original, Kind: KindKRStock}
	case isETFETN(base):
		return Classified{Original: original, Normalized: base, Kind: KindKRETFETN}
	default:
		return Classified{Original: original, Normalized: original, Kind: KindUS}
	}
}

func isETFETN(base string) bool {
	if !krETFETN.MatchString(base) {
		return false
	}
	tail := base[4:]
	return isUpper(tail[0]) || isUpper(tail[1])
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

// ClassifyAll classifies every input, keeping order and duplicates.
func ClassifyAll(raws []string) []Classified {
	out := make([]Classified, 0, len(raws))
	for _, r := range raws {
		out = append(out, Classify(r))
	}
	return out
}

// UniqueNormalized returns the distinct normalized symbols in first-seen order.
func UniqueNormalized(cs []Classified) []string {
	seen := make(map[string]struct{}, len(cs))
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		if _, dup := seen[c.Normalized]; dup {
			continue
		}
		seen[c.Normalized] = struct{}{}
		out = append(out, c.Normalized)
	}
	return out
}
