package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/catat/internal/classification"
	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/config"
	"github.com/Veraticus/catat/internal/dispatch"
	"github.com/Veraticus/catat/internal/identity"
	"github.com/Veraticus/catat/internal/model"
	"github.com/Veraticus/catat/internal/service"
	"github.com/Veraticus/catat/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// loadConfig reads the validated configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("configuration is invalid", err)
	}
	return cfg, nil
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newClassifier trains the intent classifier from config.
func newClassifier(cfg *config.Config) (*classification.Classifier, error) {
	normalizer, err := classification.NewNormalizer(cfg.NLP.Shorthands, cfg.NLP.Abbreviations)
	if err != nil {
		return nil, fmt.Errorf("failed to build normalizer: %w", err)
	}
	opts := []classification.Option{
		classification.WithNormalizer(normalizer),
		classification.WithMinConfidence(cfg.NLP.MinConfidence),
	}

	if cfg.NLP.CorpusPath == "" {
		return classification.NewDefault(opts...)
	}
	corpus, err := classification.LoadCorpusFile(cfg.NLP.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus %s: %w", cfg.NLP.CorpusPath, err)
	}
	return classification.New(corpus, opts...)
}

// newDispatcher builds the action dispatcher from config.
func newDispatcher(cfg *config.Config, store service.Storage) *dispatch.Dispatcher {
	return dispatch.New(store, store,
		dispatch.WithLocation(cfg.Location()),
		dispatch.WithHistoryLimit(cfg.Bot.HistoryLimit),
		dispatch.WithCallTimeout(cfg.Bot.CallTimeout),
		dispatch.WithMaxAmount(decimal.NewFromInt(cfg.Bot.MaxAmount)),
	)
}

// newResolver builds the sender resolver from config.
func newResolver(cfg *config.Config, store service.Storage) *identity.Resolver {
	return identity.NewResolver(store, identity.WithTimeout(cfg.Bot.CallTimeout))
}

// lookupUser finds a registered user by phone number in any common notation.
func lookupUser(ctx context.Context, store service.Storage, phone string) (*model.User, error) {
	normalized := identity.NormalizeAddress(phone)
	if normalized == "" {
		return nil, common.NewUserError(fmt.Sprintf("%q is not a phone number", phone), nil)
	}
	user, err := store.GetUserByPhone(ctx, normalized)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUserError(fmt.Sprintf("no user registered for %s", normalized), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// parseDate accepts YYYY-MM-DD in the bot time zone.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value), err)
	}
	return t, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
