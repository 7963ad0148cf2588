package typed

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/akrennmair/slice"
	"github.com/creasty/defaults"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	uatomic "go.uber.org/atomic"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hnhuaxi/presets"
	"github.com/hnhuaxi/presets/keyutil"
)

// Registry is the struct-backed flavor of presets.Registry. T must be a
// struct or pointer to struct; its `default` tags fill the template, and
// the key field (default "name") maps to the exported field of the same
// name.
type Registry[T any] struct {
	name     string
	keyField string
	template T
	entries  map[string]T
	frozen   uatomic.Bool
	mu       sync.RWMutex
	Option   presets.Options
}

func New[T any](name string, template T, ops ...presets.OptionFunc) (*Registry[T], error) {
	var opts presets.Options
	for _, op := range ops {
		op(&opts)
	}

	if name == "" {
		return nil, errors.Wrap(presets.ErrInvalidArgument, "registry requires a name")
	}

	var (
		t     = reflect.TypeOf(template)
		isPtr = t != nil && t.Kind() == reflect.Ptr
	)

	if isPtr {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.Wrapf(presets.ErrInvalidArgument, "registry %s: template must be a struct or pointer to struct, got %v", name, reflect.TypeOf(template))
	}

	if isPtr {
		if reflect.ValueOf(template).IsNil() {
			return nil, errors.Wrapf(presets.ErrInvalidArgument, "registry %s: template must not be nil", name)
		}

		// detach from the caller's value before filling defaults
		template = presets.CopyFrom(template)
		if err := defaults.Set(template); err != nil {
			return nil, errors.Wrapf(presets.ErrInvalidArgument, "registry %s: %v", name, err)
		}
	} else {
		if err := defaults.Set(&template); err != nil {
			return nil, errors.Wrapf(presets.ErrInvalidArgument, "registry %s: %v", name, err)
		}
	}

	keyField := presets.DefaultKeyField
	if opts.KeyField != "" {
		keyField = opts.KeyField
	}

	return &Registry[T]{
		name:     name,
		keyField: keyField,
		template: template,
		entries:  make(map[string]T),
		Option:   opts,
	}, nil
}

func MustNew[T any](name string, template T, ops ...presets.OptionFunc) *Registry[T] {
	reg, err := New(name, template, ops...)
	if err != nil {
		panic(err)
	}
	return reg
}

func (reg *Registry[T]) Name() string {
	return reg.name
}

func (reg *Registry[T]) KeyField() string {
	return reg.keyField
}

// Template returns the template value with its defaults applied.
func (reg *Registry[T]) Template() T {
	return reg.clone(reg.template)
}

func (reg *Registry[T]) debug(f string, args ...interface{}) {
	if reg.Option.Log != nil {
		log := reg.Option.Log.Sugar()
		log.Debugf(f, args...)
	}
}

func (reg *Registry[T]) normalize(key string) string {
	if reg.Option.Normalize != nil {
		return reg.Option.Normalize(key)
	}
	return key
}

// fieldName resolves the key field to the exported struct field name.
func (reg *Registry[T]) fieldName() string {
	return keyutil.CamelCase(reg.keyField)
}

// structType returns T's underlying struct type.
func (reg *Registry[T]) structType() reflect.Type {
	t := reflect.TypeOf(reg.template)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// clone guards stored state behind pointer templates; plain struct values
// already copy on assignment.
func (reg *Registry[T]) clone(v T) T {
	if reflect.TypeOf(reg.template).Kind() == reflect.Ptr {
		return presets.CopyFrom(v)
	}
	return v
}

// Register stores v under the key taken from its key field. Zero fields of
// v fall back to the template's values.
func (reg *Registry[T]) Register(v T) error {
	if reg.frozen.Load() {
		return errors.Wrapf(presets.ErrFrozen, "registry %s", reg.name)
	}

	key, err := reg.recordKey(v)
	if err != nil {
		return err
	}

	return reg.insert(key, v)
}

// RegisterAll stores every value under its map key, overwriting each
// value's own key field. Fail-fast, prior successful insertions remain.
func (reg *Registry[T]) RegisterAll(recs map[string]T) error {
	if reg.frozen.Load() {
		return errors.Wrapf(presets.ErrFrozen, "registry %s", reg.name)
	}

	if recs == nil {
		return errors.Wrapf(presets.ErrInvalidArgument, "registry %s: records must not be nil", reg.name)
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

// Set registers v under key, overwriting v's own key field.
func (reg *Registry[T]) Set(key string, v T) error {
	if reg.frozen.Load() {
		return errors.Wrapf(presets.ErrFrozen, "registry %s", reg.name)
	}

	if key == "" {
		return errors.Wrapf(presets.ErrMissingKey, "registry %s: empty key", reg.name)
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return errors.Wrapf(presets.ErrInvalidArgument, "registry %s: record %q must not be nil", reg.name, key)
	}

	field, ok := reg.structType().FieldByName(reg.fieldName())
	if !ok {
		return errors.Wrapf(presets.ErrMissingKey, "registry %s: %T has no %q field", reg.name, v, reg.keyField)
	}

	if field.Type.Kind() != reflect.String {
		return errors.Wrapf(presets.ErrInvalidKeyType, "registry %s: %q field is %s", reg.name, reg.keyField, field.Type.Kind())
	}

	return reg.insert(reg.normalize(key), v)
}

func (reg *Registry[T]) Get(key string) (T, bool) {
	var zero T

	if key == "" {
		return zero, false
	}

	reg.mu.RLock()
	v, ok := reg.entries[reg.normalize(key)]
	reg.mu.RUnlock()

	if !ok {
		return zero, false
	}

	return reg.clone(v), true
}

func (reg *Registry[T]) All() map[string]T {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	all := make(map[string]T, len(reg.entries))
	for key, v := range reg.entries {
		all[key] = reg.clone(v)
	}
	return all
}

// Keys returns all entry keys in sorted order.
func (reg *Registry[T]) Keys() []string {
	reg.mu.RLock()
	keys := maps.Keys(reg.entries)
	reg.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Records returns all entries ordered by key.
func (reg *Registry[T]) Records() []T {
	keys := reg.Keys()

	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return slice.Map(keys, func(key string) T {
		return reg.clone(reg.entries[key])
	})
}

func (reg *Registry[T]) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.entries)
}

// Freeze makes the registry permanently read-only. It takes the write lock
// so no in-flight registration can land once Freeze returns.
func (reg *Registry[T]) Freeze() error {
	reg.mu.Lock()
	frozen := reg.frozen.Swap(true)
	n := len(reg.entries)
	reg.mu.Unlock()

	if frozen {
		return errors.Wrapf(presets.ErrAlreadyFrozen, "registry %s", reg.name)
	}

	reg.debug("registry %s frozen with %d entries", reg.name, n)
	return nil
}

func (reg *Registry[T]) Frozen() bool {
	return reg.frozen.Load()
}

func (reg *Registry[T]) String() string {
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

	return fmt.Sprintf("%s[%s](%d %s, %s)", reg.name, reg.structType(), n, noun, state)
}

func (reg *Registry[T]) recordKey(v T) (string, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return "", errors.Wrapf(presets.ErrInvalidArgument, "registry %s: record must not be nil", reg.name)
	}

	field := rv.FieldByName(reg.fieldName())
	if !field.IsValid() {
		return "", errors.Wrapf(presets.ErrMissingKey, "registry %s: %T has no %q field", reg.name, v, reg.keyField)
	}

	if field.Kind() != reflect.String {
		return "", errors.Wrapf(presets.ErrInvalidKeyType, "registry %s: %q field is %s", reg.name, reg.keyField, field.Kind())
	}

	key := field.String()
	if key == "" {
		return "", errors.Wrapf(presets.ErrMissingKey, "registry %s: record has an empty %q field", reg.name, reg.keyField)
	}

	return reg.normalize(key), nil
}

func (reg *Registry[T]) insert(key string, v T) error {
	merged := reg.clone(reg.template)
	if err := copier.CopyWithOption(&merged, v, copier.Option{IgnoreEmpty: true}); err != nil {
		return errors.Wrapf(presets.ErrInvalidArgument, "registry %s: %v", reg.name, err)
	}

	if err := reg.tagKey(&merged, key); err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.frozen.Load() {
		return errors.Wrapf(presets.ErrFrozen, "registry %s", reg.name)
	}

	if _, exists := reg.entries[key]; exists {
		return errors.Wrapf(presets.ErrDuplicateKey, "registry %s: key %q", reg.name, key)
	}

	reg.entries[key] = merged
	reg.debug("registry %s registered %q", reg.name, key)
	return nil
}

func (reg *Registry[T]) tagKey(v *T, key string) error {
	val := reflect.ValueOf(v).Elem()
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	field := val.FieldByName(reg.fieldName())
	if !field.IsValid() || !field.CanSet() {
		return errors.Wrapf(presets.ErrMissingKey, "registry %s: %T has no settable %q field", reg.name, *v, reg.keyField)
	}

	if field.Kind() != reflect.String {
		return errors.Wrapf(presets.ErrInvalidKeyType, "registry %s: %q field is %s", reg.name, reg.keyField, field.Kind())
	}

	field.SetString(key)
	return nil
}
