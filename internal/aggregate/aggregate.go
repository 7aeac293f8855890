package aggregate

import (
	"quoteprovider/internal/provider"
	"quoteprovider/internal/symbol"
)

// Index keys quotes by uppercased symbol. When the upstream returns the same
// symbol twice, a priced quote replaces an unpriced one; otherwise the first
// wins.
func Index(quotes []provider.Quote) map[string]provider.Quote {
	idx := make(map[string]provider.Quote, len(quotes))
	for _, q := range quotes {
		k := q.Key()
		if k == "" {
			continue
		}
		if cur, ok := idx[k]; ok && (cur.HasPrice() || !q.HasPrice()) {
			continue
		}
		idx[k] = q
	}
	return idx
}

// Pick chooses the best quote for a requested symbol. The upstream may answer
// under the requested form (005930.KS) or the normalized one (0091A0); a
// priced quote beats an unpriced one, and on a tie the requested form wins.
func Pick(c symbol.Classified, idx map[string]provider.Quote) (provider.Quote, bool) {
	direct, hasDirect := idx[c.Original]
	alt, hasAlt := idx[c.Normalized]
	switch {
	case hasDirect && hasAlt:
		if !direct.HasPrice() && alt.HasPrice() {
			return alt, true
		}
		return direct, true
	case hasDirect:
		return direct, true
	case hasAlt:
		return alt, true
	default:
		return provider.Quote{}, false
	}
}

// Expand emits one quote per requested symbol, in request order. Resolved
// quotes are echoed under the exact requested string; unresolved symbols get
// a not-found quote.
func Expand(requested []symbol.Classified, quotes []provider.Quote) []provider.Quote {
	idx := Index(quotes)
	out := make([]provider.Quote, 0, len(requested))
	for _, c := range requested {
		q, ok := Pick(c, idx)
		if !ok {
			out = append(out, provider.NotFound(c.Original))
			continue
		}
		q.Symbol = c.Original
		out = append(out, q.Normalize())
	}
	return out
}
