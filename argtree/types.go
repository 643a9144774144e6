package argtree

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Type is the closed set of flag value types: Primitive, Custom or Composite.
type Type interface {
	typeName() string
}

// Primitive is one of the built-in type tags.
type Primitive string

const (
	String  Primitive = "string"
	Number  Primitive = "number"
	Boolean Primitive = "boolean"
	Array   Primitive = "array"
	Object  Primitive = "object"
)

func (p Primitive) typeName() string { return string(p) }

func (p Primitive) valid() bool {
	switch p {
	case String, Number, Boolean, Array, Object:
		return true
	}
	return false
}

// ConvertFunc turns a raw token into a value. It may return an Awaiter (for
// example a *Pending) which is awaited before the flag is validated.
type ConvertFunc func(raw string) (any, error)

// Custom is a user conversion function.
type Custom struct {
	Name string
	Fn   ConvertFunc
}

func (c Custom) typeName() string {
	if c.Name != "" {
		return c.Name
	}
	return "value"
}

// Composite decodes JSON tokens against a cty schema, e.g.
// cty.Object(map[string]cty.Type{"host": cty.String, "port": cty.Number}).
type Composite struct {
	Schema cty.Type
}

func (c Composite) typeName() string { return c.Schema.FriendlyName() }

// Awaiter is a value whose result becomes available later.
type Awaiter interface {
	AwaitValue(ctx context.Context) (any, error)
}

// TypeName returns the label used for t in help output.
func TypeName(t Type) string {
	if t == nil {
		return string(String)
	}
	return t.typeName()
}

// IsBoolean reports whether t is the Boolean primitive.
func IsBoolean(t Type) bool {
	p, ok := t.(Primitive)
	return ok && p == Boolean
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// Convert converts one raw token according to t the way the matcher does.
// Awaiter results are awaited with ctx.
func Convert(ctx context.Context, t Type, raw string) (any, error) {
	return convertRaw(ctx, t, raw)
}

// convertRaw converts one raw token according to t.
func convertRaw(ctx context.Context, t Type, raw string) (any, error) {
	var (
		v   any
		err error
	)
	switch tt := t.(type) {
	case Primitive:
		v, err = convertPrimitive(tt, raw)
	case Custom:
		v, err = tt.Fn(raw)
	case Composite:
		var cv cty.Value
		cv, err = ctyjson.Unmarshal([]byte(raw), tt.Schema)
		if err == nil {
			v = ctyToNative(cv)
		}
	default:
		return nil, fmt.Errorf("unsupported type %T", t)
	}
	if err != nil {
		return nil, err
	}
	if a, ok := v.(Awaiter); ok {
		return a.AwaitValue(ctx)
	}
	return v, nil
}

func convertPrimitive(p Primitive, raw string) (any, error) {
	switch p {
	case Number:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case Boolean:
		return parseBool(raw), nil
	case Array:
		return []any{raw}, nil
	case Object:
		ty, err := ctyjson.ImpliedType([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("%q is not a JSON object: %w", raw, err)
		}
		if !ty.IsObjectType() {
			return nil, fmt.Errorf("%q is not a JSON object", raw)
		}
		v, err := ctyjson.Unmarshal([]byte(raw), ty)
		if err != nil {
			return nil, err
		}
		return ctyToNative(v), nil
	default:
		return raw, nil
	}
}

// convertCty converts a config-file value according to t. String values go
// through the same path as command-line tokens.
func convertCty(ctx context.Context, t Type, v cty.Value) (any, error) {
	if v.IsNull() || !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value must be known and not null")
	}
	if v.Type().Equals(cty.String) {
		if _, isComposite := t.(Composite); !isComposite {
			return convertRaw(ctx, t, v.AsString())
		}
	}

	switch tt := t.(type) {
	case Primitive:
		switch tt {
		case Number:
			cv, err := convert.Convert(v, cty.Number)
			if err != nil {
				return nil, err
			}
			return ctyToNative(cv), nil
		case Boolean:
			cv, err := convert.Convert(v, cty.Bool)
			if err != nil {
				return nil, err
			}
			return cv.True(), nil
		case Array:
			if native, ok := ctyToNative(v).([]any); ok {
				return native, nil
			}
			return []any{ctyToNative(v)}, nil
		case Object:
			ty := v.Type()
			if !ty.IsObjectType() && !ty.IsMapType() {
				return nil, fmt.Errorf("expected an object, got %s", ty.FriendlyName())
			}
			return ctyToNative(v), nil
		default:
			cv, err := convert.Convert(v, cty.String)
			if err != nil {
				return nil, err
			}
			return cv.AsString(), nil
		}
	case Custom:
		cv, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, err
		}
		return convertRaw(ctx, t, cv.AsString())
	case Composite:
		cv, err := convert.Convert(v, tt.Schema)
		if err != nil {
			return nil, err
		}
		return ctyToNative(cv), nil
	}
	return nil, fmt.Errorf("unsupported type %T", t)
}

// ctyToNative maps a cty value onto string, float64, bool, []any and
// map[string]any. Null and unknown values map to nil.
func ctyToNative(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	switch {
	case ty.Equals(cty.String):
		return v.AsString()
	case ty.Equals(cty.Number):
		f, _ := v.AsBigFloat().Float64()
		return f
	case ty.Equals(cty.Bool):
		return v.True()
	case ty.IsListType(), ty.IsSetType(), ty.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ctyToNative(ev))
		}
		return out
	case ty.IsMapType(), ty.IsObjectType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			out[k.AsString()] = ctyToNative(ev)
		}
		return out
	}
	return nil
}

// normalizeNumber widens Go numeric kinds to float64 so that declared enum
// members and defaults compare equal to converted Number values.
func normalizeNumber(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32:
		return rv.Float()
	}
	if b, ok := v.(*big.Float); ok {
		f, _ := b.Float64()
		return f
	}
	return v
}

// valuesEqual is exact value equality: same dynamic type and value.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
