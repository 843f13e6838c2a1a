package classification

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/catat/internal/common"
	"github.com/agnivade/levenshtein"
	"github.com/jbrukh/bayesian"
)

// DefaultMinConfidence is the lowest confidence accepted from either stage.
const DefaultMinConfidence = 0.5

const (
	slotAmount    = "{amount}"
	slotCategory  = "{category}"
	amountFeature = "#amount"

	tieTolerance = 1e-9
)

type options struct {
	normalizer    *Normalizer
	patterns      []Pattern
	minConfidence float64
}

// Option configures a Classifier.
type Option func(*options)

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *Normalizer) Option {
	return func(o *options) { o.normalizer = n }
}

// WithPatterns replaces the default fallback rules.
func WithPatterns(patterns []Pattern) Option {
	return func(o *options) { o.patterns = patterns }
}

// WithMinConfidence sets the confidence threshold.
func WithMinConfidence(threshold float64) Option {
	return func(o *options) { o.minConfidence = threshold }
}

// Classifier is a trained intent model. It is immutable after New returns
// and safe for concurrent use.
type Classifier struct {
	model         *bayesian.Classifier
	normalizer    *Normalizer
	rules         *PatternDetector
	vocabulary    map[string]struct{}
	markers       map[Intent]map[string]struct{}
	intents       []Intent
	sortedVocab   []string
	examples      int
	minConfidence float64
}

// New trains a classifier from corpus. It fails when the corpus cannot
// produce a usable model.
func New(corpus []Example, opts ...Option) (*Classifier, error) {
	o := options{
		patterns:      DefaultPatterns(),
		minConfidence: DefaultMinConfidence,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.normalizer == nil {
		o.normalizer = DefaultNormalizer()
	}
	if o.minConfidence <= 0 || o.minConfidence > 1 {
		return nil, fmt.Errorf("min confidence %.2f out of range (0, 1]", o.minConfidence)
	}
	if len(corpus) == 0 {
		return nil, common.ErrEmptyCorpus
	}

	c := &Classifier{
		normalizer:    o.normalizer,
		vocabulary:    make(map[string]struct{}),
		markers:       make(map[Intent]map[string]struct{}),
		examples:      len(corpus),
		minConfidence: o.minConfidence,
	}

	documents := make(map[Intent][][]string)
	for i, example := range corpus {
		if _, err := ParseIntent(string(example.Intent)); err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		if example.Intent == IntentUnknown {
			return nil, fmt.Errorf("example %d: %w: %s cannot be trained", i, common.ErrInvalidIntent, IntentUnknown)
		}
		if example.Language != "" && example.Language != DefaultLanguage {
			return nil, fmt.Errorf("example %d: unsupported language %q", i, example.Language)
		}

		tokens := c.normalizer.Tokens(example.Utterance)
		for j, tok := range tokens {
			if isSlot(tok) && tok != slotAmount && tok != slotCategory {
				return nil, fmt.Errorf("example %d: unknown slot %s", i, tok)
			}
			if tok == slotCategory && j > 0 && !isSlot(tokens[j-1]) && !IsNumeric(tokens[j-1]) {
				if c.markers[example.Intent] == nil {
					c.markers[example.Intent] = make(map[string]struct{})
				}
				c.markers[example.Intent][tokens[j-1]] = struct{}{}
			}
		}

		features := featuresOf(tokens)
		if len(features) == 0 {
			return nil, fmt.Errorf("example %d: %q produces no features", i, example.Utterance)
		}
		for _, f := range features {
			if f != amountFeature {
				c.vocabulary[f] = struct{}{}
			}
		}
		documents[example.Intent] = append(documents[example.Intent], features)
	}

	for _, intent := range trainableIntents {
		if _, ok := documents[intent]; ok {
			c.intents = append(c.intents, intent)
		}
	}
	if len(c.intents) < 2 {
		return nil, fmt.Errorf("%w: corpus must label at least two intents, got %d", common.ErrClassifierNotTrained, len(c.intents))
	}

	classes := make([]bayesian.Class, len(c.intents))
	for i, intent := range c.intents {
		classes[i] = bayesian.Class(intent)
	}
	c.model = bayesian.NewClassifier(classes...)
	for _, intent := range c.intents {
		for _, doc := range documents[intent] {
			c.model.Learn(doc, bayesian.Class(intent))
		}
	}

	c.sortedVocab = make([]string, 0, len(c.vocabulary))
	for word := range c.vocabulary {
		c.sortedVocab = append(c.sortedVocab, word)
	}
	sort.Strings(c.sortedVocab)

	rules, err := NewPatternDetector(o.patterns)
	if err != nil {
		return nil, err
	}
	c.rules = rules

	slog.Debug("Trained intent classifier",
		"examples", c.examples,
		"intents", len(c.intents),
		"vocabulary", len(c.sortedVocab),
		"rules", rules.PatternCount())

	return c, nil
}

// NewDefault trains a classifier on the embedded corpus.
func NewDefault(opts ...Option) (*Classifier, error) {
	corpus, err := DefaultCorpus()
	if err != nil {
		return nil, err
	}
	return New(corpus, opts...)
}

// Intents returns the intents the model was trained on.
func (c *Classifier) Intents() []Intent {
	out := make([]Intent, len(c.intents))
	copy(out, c.intents)
	return out
}

// VocabularySize returns the number of distinct trained words.
func (c *Classifier) VocabularySize() int {
	return len(c.sortedVocab)
}

// Classify returns the intent and entities for text. The same input always
// yields the same result.
func (c *Classifier) Classify(text string) Result {
	tokens := c.normalizer.Tokens(text)
	corrected := make([]string, len(tokens))
	for i, tok := range tokens {
		corrected[i] = c.correct(tok)
	}

	result := Result{
		Intent:     IntentUnknown,
		ResolvedBy: ResolvedNone,
		Utterance:  text,
		Normalized: strings.Join(tokens, " "),
	}

	if intent, confidence, ok := c.score(featuresOf(corrected)); ok {
		result.Intent = intent
		result.Confidence = confidence
		result.ResolvedBy = ResolvedByModel
	} else if match := c.rules.Detect(strings.Join(corrected, " ")); match != nil && match.Confidence >= c.minConfidence {
		result.Intent = match.Intent
		result.Confidence = match.Confidence
		result.ResolvedBy = ResolvedByRule
	}

	result.Entities = c.extractEntities(result.Intent, tokens, corrected)
	return result
}

// score runs the statistical model. It declines when no known word is
// present, when the top two classes tie, or when confidence is too low.
func (c *Classifier) score(features []string) (Intent, float64, bool) {
	known := false
	for _, f := range features {
		if _, ok := c.vocabulary[f]; ok {
			known = true
			break
		}
	}
	if !known {
		return IntentUnknown, 0, false
	}

	scores, best, _ := c.model.LogScores(features)
	for i, s := range scores {
		// Treat scores within rounding error of the best as a tie.
		if i != best && scores[best]-s < tieTolerance {
			return IntentUnknown, 0, false
		}
	}

	// Softmax over log scores, shifted by the maximum to avoid underflow.
	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - scores[best])
	}
	confidence := 1 / sum
	if confidence < c.minConfidence {
		return IntentUnknown, confidence, false
	}
	return c.intents[best], confidence, true
}

// correct replaces a misspelled word with its nearest vocabulary word.
// Words of five runes tolerate one edit and words of eight tolerate two.
func (c *Classifier) correct(tok string) string {
	if _, ok := c.vocabulary[tok]; ok || isSlot(tok) || IsNumeric(tok) {
		return tok
	}
	length := utf8.RuneCountInString(tok)
	if length < 5 {
		return tok
	}
	limit := 1
	if length >= 8 {
		limit = 2
	}

	best, bestDistance := tok, limit+1
	for _, word := range c.sortedVocab {
		diff := utf8.RuneCountInString(word) - length
		if diff > limit || -diff > limit {
			continue
		}
		// sortedVocab is ordered, so strict < keeps the lexicographically smaller word on ties.
		if d := levenshtein.ComputeDistance(tok, word); d < bestDistance {
			best, bestDistance = word, d
		}
	}
	return best
}

func (c *Classifier) extractEntities(intent Intent, tokens, corrected []string) []Entity {
	entities := []Entity{}

	for _, tok := range tokens {
		if !IsNumeric(tok) {
			continue
		}
		if amount, ok := parseAmount(tok); ok {
			entities = append(entities, Entity{Type: EntityAmount, Value: amount})
			break
		}
	}

	markers := c.markers[intent]
	if len(markers) == 0 {
		return entities
	}
	isMarker := func(i int) bool {
		_, ok := markers[corrected[i]]
		return ok
	}
	// The category follows the last marker that still has words after it,
	// so "beli 20000 untuk makan" yields "makan".
	for i := len(corrected) - 1; i >= 0; i-- {
		if !isMarker(i) {
			continue
		}
		var words []string
		for j := i + 1; j < len(tokens); j++ {
			if IsNumeric(tokens[j]) || isSlot(tokens[j]) || isMarker(j) {
				continue
			}
			words = append(words, tokens[j])
		}
		if len(words) > 0 {
			entities = append(entities, Entity{Type: EntityCategory, Value: strings.Join(words, " ")})
			break
		}
	}
	return entities
}

func featuresOf(tokens []string) []string {
	features := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		switch {
		case tok == slotCategory:
			continue
		case tok == slotAmount || IsNumeric(tok):
			features = append(features, amountFeature)
		default:
			features = append(features, tok)
		}
	}
	return features
}

func isSlot(tok string) bool {
	return strings.HasPrefix(tok, "{") && strings.HasSuffix(tok, "}")
}
