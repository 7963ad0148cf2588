package presets

import (
	"fmt"
	"sync"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	uatomic "go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hnhuaxi/presets/keyutil"
)

// DefaultKeyField is the record field entry keys are derived from.
const DefaultKeyField = "name"

// Registry holds named preset records layered on a template. Entries
// accumulate until Freeze, after which the set is permanently read-only.
type Registry struct {
	name     string
	keyField string
	template Record
	entries  map[string]Record
	frozen   uatomic.Bool
	mu       sync.RWMutex
	Option   Options
}

func New(name string, template Record, ops ...OptionFunc) (*Registry, error) {
	var opts Options
	for _, op := range ops {
		op(&opts)
	}

	if name == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "registry requires a name")
	}

	if template == nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "registry %s requires a template", name)
	}

	keyField := DefaultKeyField
	if opts.KeyField != "" {
		keyField = opts.KeyField
	}

	return &Registry{
		name:     name,
		keyField: keyField,
		template: template.Clone(),
		entries:  make(map[string]Record),
		Option:   opts,
	}, nil
}

func MustNew(name string, template Record, ops ...OptionFunc) *Registry {
	reg, err := New(name, template, ops...)
	if err != nil {
		panic(err)
	}
	return reg
}

func (reg *Registry) Name() string {
	return reg.name
}

func (reg *Registry) KeyField() string {
	return reg.keyField
}

// Template returns a copy of the template shape.
func (reg *Registry) Template() Record {
	return reg.template.Clone()
}

func (reg *Registry) debug(f string, args ...interface{}) {
	if reg.Option.Log != nil {
		log := reg.Option.Log.Sugar()
		log.Debugf(f, args...)
	}
}

func (reg *Registry) normalize(key string) string {
	if reg.Option.Normalize != nil {
		return reg.Option.Normalize(key)
	}
	return key
}

// Register stores rec under the key taken from its key field. The stored
// record is the template with rec's fields overlaid on top.
func (reg *Registry) Register(rec Record) error {
	if reg.frozen.Load() {
		return errors.Wrapf(ErrFrozen, "registry %s", reg.name)
	}

	key, err := reg.recordKey(rec)
	if err != nil {
		return err
	}

	return reg.insert(key, rec)
}

// RegisterAll stores every record in recs under its map key, overwriting
// each record's own key field with that key. Fail-fast: the first invalid
// entry aborts the call and entries registered before it stay registered.
func (reg *Registry) RegisterAll(recs map[string]Record) error {
	if reg.frozen.Load() {
		return errors.Wrapf(ErrFrozen, "registry %s", reg.name)
	}

	if recs == nil {
		return errors.Wrapf(ErrInvalidArgument, "registry %s: records must not be nil", reg.name)
	}

	keys := maps.Keys(recs)
	slices.Sort(keys)

	for _, key := range keys {
		if err := reg.Set(key, recs[key]); err != nil {
			return err
		}
	}

	return nil
}

// Set registers rec under key, overwriting the record's own key field.
func (reg *Registry) Set(key string, rec Record) error {
	if reg.frozen.Load() {
		return errors.Wrapf(ErrFrozen, "registry %s", reg.name)
	}

	if key == "" {
		return errors.Wrapf(ErrMissingKey, "registry %s: empty key", reg.name)
	}

	if rec == nil {
		return errors.Wrapf(ErrInvalidArgument, "registry %s: record %q must not be nil", reg.name, key)
	}

	return reg.insert(reg.normalize(key), rec)
}

// Get returns a copy of the record stored under key. A missing key is a
// normal (nil, false) outcome, never an error.
func (reg *Registry) Get(key string) (Record, bool) {
	if key == "" {
		return nil, false
	}

	reg.mu.RLock()
	rec, ok := reg.entries[reg.normalize(key)]
	reg.mu.RUnlock()

	if !ok {
		return nil, false
	}

	return rec.Clone(), true
}

// All returns a deep-copied snapshot of every entry. Mutating the snapshot
// never reaches the registry's stored state.
func (reg *Registry) All() map[string]Record {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	all := make(map[string]Record, len(reg.entries))
	for key, rec := range reg.entries {
		all[key] = rec.Clone()
	}

	return all
}

// Keys returns all entry keys in sorted order.
func (reg *Registry) Keys() []string {
	reg.mu.RLock()
	keys := maps.Keys(reg.entries)
	reg.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.entries)
}

// Freeze makes the registry permanently read-only. It takes the write lock
// so no in-flight registration can land once Freeze returns.
func (reg *Registry) Freeze() error {
	reg.mu.Lock()
	frozen := reg.frozen.Swap(true)
	n := len(reg.entries)
	reg.mu.Unlock()

	if frozen {
		return errors.Wrapf(ErrAlreadyFrozen, "registry %s", reg.name)
	}

	reg.debug("registry %s frozen with %d entries", reg.name, n)
	return nil
}

func (reg *Registry) Frozen() bool {
	return reg.frozen.Load()
}

// Validate checks a batch without inserting anything and reports every
// problem at once, unlike the fail-fast RegisterAll.
func (reg *Registry) Validate(recs map[string]Record) error {
	if reg.frozen.Load() {
		return errors.Wrapf(ErrFrozen, "registry %s", reg.name)
	}

	if recs == nil {
		return errors.Wrapf(ErrInvalidArgument, "registry %s: records must not be nil", reg.name)
	}

	var (
		errs error
		seen = make(map[string]bool, len(recs))
	)

	keys := maps.Keys(recs)
	slices.Sort(keys)

	for _, key := range keys {
		var (
			rec = recs[key]
			nk  = key
		)

		if key != "" {
			nk = reg.normalize(key)
		}

		switch {
		case key == "":
			errs = multierr.Append(errs, errors.Wrapf(ErrMissingKey, "registry %s: empty key", reg.name))
		case rec == nil:
			errs = multierr.Append(errs, errors.Wrapf(ErrInvalidArgument, "registry %s: record %q must not be nil", reg.name, key))
		case seen[nk] || reg.has(nk):
			errs = multierr.Append(errs, errors.Wrapf(ErrDuplicateKey, "registry %s: key %q", reg.name, key))
		}

		if key != "" {
			seen[nk] = true
		}
	}

	return errs
}

func (reg *Registry) String() string {
	var (
		n     = reg.Len()
		noun  = "entry"
		state = "open"
	)

	if n != 1 {
		noun = keyutil.Plural(noun)
	}

	if reg.frozen.Load() {
		state = "frozen"
	}

	return fmt.Sprintf("%s(%d %s, %s)", reg.name, n, noun, state)
}

func (reg *Registry) has(key string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	_, ok := reg.entries[key]
	return ok
}

func (reg *Registry) recordKey(rec Record) (string, error) {
	if rec == nil {
		return "", errors.Wrapf(ErrInvalidArgument, "registry %s: record must not be nil", reg.name)
	}

	v, ok := rec[reg.keyField]
	if !ok || v == nil {
		return "", errors.Wrapf(ErrMissingKey, "registry %s: record has no %q field", reg.name, reg.keyField)
	}

	key, ok := v.(string)
	if !ok {
		return "", errors.Wrapf(ErrInvalidKeyType, "registry %s: %q field is %T", reg.name, reg.keyField, v)
	}

	if key == "" {
		return "", errors.Wrapf(ErrMissingKey, "registry %s: record has an empty %q field", reg.name, reg.keyField)
	}

	return reg.normalize(key), nil
}

func (reg *Registry) insert(key string, rec Record) error {
	merged := reg.template.Clone()
	if merged == nil {
		merged = make(Record)
	}

	if err := mergo.Map(&merged, rec.Clone(), mergo.WithOverride); err != nil {
		return errors.Wrapf(ErrInvalidArgument, "registry %s: %v", reg.name, err)
	}

	merged[reg.keyField] = key

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.frozen.Load() {
		return errors.Wrapf(ErrFrozen, "registry %s", reg.name)
	}

	if _, exists := reg.entries[key]; exists {
		return errors.Wrapf(ErrDuplicateKey, "registry %s: key %q", reg.name, key)
	}

	reg.entries[key] = merged
	reg.debug("registry %s registered %q", reg.name, key)
	return nil
}
