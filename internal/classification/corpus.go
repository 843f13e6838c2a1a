package classification

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/catat/internal/common"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is the only locale the bot understands.
const DefaultLanguage = "id"

//go:embed corpus.yaml
var embeddedCorpus []byte

// Example is one labeled training utterance.
type Example struct {
	Language  string
	Utterance string
	Intent    Intent
}

type corpusFile struct {
	Language string          `yaml:"language"`
	Intents  []corpusSection `yaml:"intents"`
}

type corpusSection struct {
	Intent     string   `yaml:"intent"`
	Utterances []string `yaml:"utterances"`
}

// DefaultCorpus returns the embedded training corpus.
func DefaultCorpus() ([]Example, error) {
	return LoadCorpus(bytes.NewReader(embeddedCorpus))
}

// LoadCorpusFile reads a corpus override from disk.
func LoadCorpusFile(path string) ([]Example, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadCorpus(f)
}

// LoadCorpus parses a YAML corpus. Labels outside the intent set are rejected.
func LoadCorpus(r io.Reader) ([]Example, error) {
	var file corpusFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, common.ErrEmptyCorpus
		}
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}

	language := file.Language
	if language == "" {
		language = DefaultLanguage
	}

	var examples []Example
	for _, section := range file.Intents {
		intent, err := ParseIntent(section.Intent)
		if err != nil {
			return nil, err
		}
		for _, utterance := range section.Utterances {
			utterance = strings.TrimSpace(utterance)
			if utterance == "" {
				continue
			}
			examples = append(examples, Example{
				Language:  language,
				Utterance: utterance,
				Intent:    intent,
			})
		}
	}

	if len(examples) == 0 {
		return nil, common.ErrEmptyCorpus
	}
	return examples, nil
}
