package engine

import (
	"fmt"
	"reflect"

	"github.com/dop251/goja"

	"github.com/wippyai/script-runtime/errors"
)

// maxConvertDepth bounds the nested-value walk; deeper values are handed to
// goja unchecked.
const maxConvertDepth = 32

// ToValue converts a host value bound under name into a goja value.
//
// The conversion is partial: channels, complex numbers and unsafe pointers
// have no JS representation, anywhere in the value, and neither do maps whose
// keys are not strings or integers. Those fail with a binding conversion error
// whose Path locates the offending element. Functions are allowed and become
// callable from the script.
func ToValue(vm *goja.Runtime, name string, value any) (goja.Value, error) {
	if !isIdentifier(name) {
		return nil, errors.Unconvertible([]string{name}, "", "binding name is not a valid identifier")
	}
	if v, ok := value.(goja.Value); ok {
		return v, nil
	}
	if err := checkConvertible([]string{name}, reflect.ValueOf(value), 0, make(map[visit]bool)); err != nil {
		return nil, err
	}
	return vm.ToValue(value), nil
}

// visit identifies a reference value already walked. Slices sharing a
// backing array differ by length, so length is part of the key.
type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// walked marks rv as visited and reports whether it was already.
func walked(seen map[visit]bool, rv reflect.Value) bool {
	v := visit{typ: rv.Type(), ptr: rv.Pointer()}
	if rv.Kind() == reflect.Slice {
		v.len = rv.Len()
	}
	if seen[v] {
		return true
	}
	seen[v] = true
	return false
}

func checkConvertible(path []string, rv reflect.Value, depth int, seen map[visit]bool) error {
	if !rv.IsValid() || depth > maxConvertDepth {
		return nil
	}

	switch rv.Kind() {
	case reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return errors.Unconvertible(path, rv.Type().String(),
			fmt.Sprintf("%s values have no JS representation", rv.Kind()))

	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if walked(seen, rv) {
			return nil
		}
		return checkConvertible(path, rv.Elem(), depth+1, seen)

	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return checkConvertible(path, rv.Elem(), depth+1, seen)

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() || walked(seen, rv) {
				return nil
			}
		}
		for i := 0; i < rv.Len(); i++ {
			if err := checkConvertible(appendPath(path, fmt.Sprintf("[%d]", i)), rv.Index(i), depth+1, seen); err != nil {
				return err
			}
		}

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		switch rv.Type().Key().Kind() {
		case reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			return errors.Unconvertible(path, rv.Type().String(), "map keys must be strings or integers")
		}
		if walked(seen, rv) {
			return nil
		}
		iter := rv.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			if err := checkConvertible(appendPath(path, key), iter.Value(), depth+1, seen); err != nil {
				return err
			}
		}

	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			if err := checkConvertible(appendPath(path, field.Name), rv.Field(i), depth+1, seen); err != nil {
				return err
			}
		}
	}

	return nil
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}
