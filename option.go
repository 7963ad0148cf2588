package presets

import (
	"strings"

	"go.uber.org/zap"

	"github.com/hnhuaxi/presets/keyutil"
)

type Options struct {
	KeyField  string
	Normalize func(key string) string
	Log       *zap.Logger
}

type OptionFunc func(opt *Options)

// OptKeyField overrides the record field used to derive entry keys.
func OptKeyField(field string) OptionFunc {
	return func(opt *Options) {
		opt.KeyField = field
	}
}

// OptNormalizer canonicalizes keys on every register and lookup.
func OptNormalizer(fn func(key string) string) OptionFunc {
	return func(opt *Options) {
		opt.Normalize = fn
	}
}

func OptLowerKeys() OptionFunc {
	return OptNormalizer(strings.ToLower)
}

func OptSnakeKeys() OptionFunc {
	return OptNormalizer(keyutil.SnakeCase)
}

func OptLogger(log *zap.Logger) OptionFunc {
	return func(opt *Options) {
		opt.Log = log
	}
}
