package classification

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// DefaultShorthands maps informal numeric suffixes to their multipliers.
func DefaultShorthands() map[string]int64 {
	return map[string]int64{
		"rb":   1_000,
		"ribu": 1_000,
		"k":    1_000,
		"jt":   1_000_000,
		"juta": 1_000_000,
	}
}

// DefaultAbbreviations maps chat abbreviations to the words the corpus uses.
func DefaultAbbreviations() map[string]string {
	return map[string]string{
		"utk":  "untuk",
		"untk": "untuk",
		"utuk": "untuk",
		"unt":  "untuk",
		"buat": "untuk",
		"bwt":  "untuk",
		"dr":   "dari",
		"dri":  "dari",
	}
}

var (
	currencyPrefix = regexp.MustCompile(`\brp\.?\s*(\d)`)
	thousandsSep   = regexp.MustCompile(`(\d)[.,](\d{3})(\D|$)`)
	tokenPattern   = regexp.MustCompile(`\{[a-z]+\}|\d+(?:[.,]\d+)*|[\p{L}\p{N}]+`)
	numericToken   = regexp.MustCompile(`^\d+(?:[.,]\d+)*$`)
)

// Chains are not safe for concurrent use, so each call borrows one.
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
			norm.NFC,
		)
	},
}

// Normalizer turns informal chat text into classifier tokens.
// It is safe for concurrent use.
type Normalizer struct {
	shorthand     *regexp.Regexp
	multipliers   map[string]decimal.Decimal
	abbreviations map[string]string
}

// NewNormalizer builds a normalizer from shorthand and abbreviation tables.
func NewNormalizer(shorthands map[string]int64, abbreviations map[string]string) (*Normalizer, error) {
	n := &Normalizer{
		multipliers:   make(map[string]decimal.Decimal, len(shorthands)),
		abbreviations: make(map[string]string, len(abbreviations)),
	}

	suffixes := make([]string, 0, len(shorthands))
	for suffix, multiplier := range shorthands {
		suffix = strings.ToLower(strings.TrimSpace(suffix))
		if suffix == "" || multiplier <= 0 {
			return nil, fmt.Errorf("invalid shorthand %q=%d", suffix, multiplier)
		}
		n.multipliers[suffix] = decimal.NewFromInt(multiplier)
		suffixes = append(suffixes, regexp.QuoteMeta(suffix))
	}
	// Longest first so "ribu" wins over a shorter prefix.
	sort.Slice(suffixes, func(i, j int) bool {
		if len(suffixes[i]) != len(suffixes[j]) {
			return len(suffixes[i]) > len(suffixes[j])
		}
		return suffixes[i] < suffixes[j]
	})
	if len(suffixes) > 0 {
		n.shorthand = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s?(` + strings.Join(suffixes, "|") + `)\b`)
	}

	for from, to := range abbreviations {
		from = strings.ToLower(strings.TrimSpace(from))
		to = strings.ToLower(strings.TrimSpace(to))
		if from == "" || to == "" {
			return nil, fmt.Errorf("invalid abbreviation %q=%q", from, to)
		}
		n.abbreviations[from] = to
	}

	return n, nil
}

// DefaultNormalizer returns a normalizer with the default tables.
func DefaultNormalizer() *Normalizer {
	n, err := NewNormalizer(DefaultShorthands(), DefaultAbbreviations())
	if err != nil {
		panic(err)
	}
	return n
}

// Normalize folds case and width, strips marks, drops currency prefixes and
// thousands separators, and expands numeric shorthand.
func (n *Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")
	tr := foldPool.Get().(transform.Transformer)
	folded, _, err := transform.String(tr, s)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		folded = strings.ToLower(s)
	}

	folded = currencyPrefix.ReplaceAllString(folded, "$1")

	for {
		next := thousandsSep.ReplaceAllString(folded, "$1$2$3")
		if next == folded {
			break
		}
		folded = next
	}

	if n.shorthand != nil {
		folded = n.shorthand.ReplaceAllStringFunc(folded, n.expandShorthand)
	}

	return strings.Join(strings.Fields(folded), " ")
}

func (n *Normalizer) expandShorthand(match string) string {
	parts := n.shorthand.FindStringSubmatch(match)
	if len(parts) != 3 {
		return match
	}
	value, err := decimal.NewFromString(strings.Replace(parts[1], ",", ".", 1))
	if err != nil {
		return match
	}
	return value.Mul(n.multipliers[parts[2]]).String()
}

// Tokens normalizes s and splits it into words, numbers and slot placeholders,
// expanding abbreviations.
func (n *Normalizer) Tokens(s string) []string {
	tokens := tokenPattern.FindAllString(n.Normalize(s), -1)
	for i, tok := range tokens {
		if full, ok := n.abbreviations[tok]; ok {
			tokens[i] = full
		}
	}
	return tokens
}

// IsNumeric reports whether tok is a number token.
func IsNumeric(tok string) bool {
	return numericToken.MatchString(tok)
}

// parseAmount converts a number token into a plain decimal string.
func parseAmount(tok string) (string, bool) {
	if strings.Count(tok, ".")+strings.Count(tok, ",") > 1 {
		return "", false
	}
	value, err := decimal.NewFromString(strings.Replace(tok, ",", ".", 1))
	if err != nil {
		return "", false
	}
	return value.String(), true
}
