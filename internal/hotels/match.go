package hotels

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"hotel_sync/internal/domain"
)

// TokenSortRatio scores two names 0..100 ignoring token order. The score is
// the indel similarity 2*LCS/(len a + len b), so names sharing no characters
// score 0.
func TokenSortRatio(a, b string) float64 {
	sa, sb := sortedTokens(a), sortedTokens(b)
	total := utf8.RuneCountInString(sa) + utf8.RuneCountInString(sb)
	if total == 0 {
		return 100
	}
	lcs := edlib.LCS(sa, sb)
	return float64(2*lcs) / float64(total) * 100
}

func sortedTokens(s string) string {
	t := tokenize(s)
	sort.Strings(t)
	return strings.Join(t, " ")
}

// exactMatch compares normalized names.
func exactMatch(query string, hotels []domain.PartnerHotel) (domain.PartnerHotel, bool) {
	if query == "" {
		return domain.PartnerHotel{}, false
	}
	for _, h := range hotels {
		if Normalize(h.Name) == query {
			return h, true
		}
	}
	return domain.PartnerHotel{}, false
}

// fuzzyMatch returns up to limit candidates scoring at least minScore (0..100),
// best first, with the score expressed as a two-decimal fraction.
func fuzzyMatch(query string, hotels []domain.PartnerHotel, limit int, minScore float64) []domain.HotelCandidate {
	out := []domain.HotelCandidate{}
	if query == "" {
		return out
	}
	for _, h := range hotels {
		n := Normalize(h.Name)
		if n == "" {
			continue
		}
		score := TokenSortRatio(query, n)
		if score < minScore {
			continue
		}
		out = append(out, domain.HotelCandidate{ID: h.ID, Name: h.Name, Score: math.Round(score) / 100})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
