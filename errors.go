package presets

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingKey      = errors.New("missing key field")
	ErrInvalidKeyType  = errors.New("key field must be a string")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrFrozen          = errors.New("registry is frozen")
	ErrAlreadyFrozen   = errors.New("registry already frozen")
)

func CheckDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

func CheckFrozen(err error) bool {
	return errors.Is(err, ErrFrozen) || errors.Is(err, ErrAlreadyFrozen)
}
