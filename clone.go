package presets

import (
	"reflect"

	"github.com/jinzhu/copier"
)

// CopyFrom returns a deep copy of src. Maps and structs (or pointers to
// structs) are duplicated field by field; scalar values come back as-is.
func CopyFrom[T any](src T) T {
	var (
		v     = reflect.ValueOf(src)
		val   reflect.Value
		isPtr bool
		dst   T
		ok    bool
	)

	for {
		switch v.Kind() {
		case reflect.Map:
			val = reflect.MakeMap(v.Type())
		case reflect.Struct:
			if isPtr {
				val = reflect.New(v.Type())
			} else {
				val = reflect.New(v.Type()).Elem()
			}
		case reflect.Ptr:
			v = reflect.Indirect(v)
			isPtr = true
			continue
		default:
			dst = src
			return dst
		}
		break
	}

	if dst, ok = val.Interface().(T); ok {
		if isPtr {
			copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true})
		} else {
			copier.CopyWithOption(&dst, src, copier.Option{DeepCopy: true})
		}
	} else {
		panic("invalid type")
	}

	return dst
}
