package keys

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Serializer renders arbitrary filter values into a canonical string so that
// equal filters always produce the same key segment.
type Serializer interface {
	Serialize(args ...any) string
}

// defaultSerializer implements Serializer using reflection. Maps are
// rendered with sorted keys, structs by exported field name, and anything
// else falls back to JSON.
type defaultSerializer struct{}

// NewSerializer returns the reflection based Serializer.
func NewSerializer() Serializer {
	return defaultSerializer{}
}

var canonical = NewSerializer()

// Digest folds args into a fixed-width, 16 hex character segment.
func Digest(args ...any) string {
	sum := xxhash.Sum64String(canonical.Serialize(args...))
	return fmt.Sprintf("%016x", sum)
}

func (s defaultSerializer) Serialize(args ...any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = s.serializeValue(arg)
	}
	return strings.Join(parts, "|")
}

func (s defaultSerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	switch t := v.(type) {
	case time.Time:
		return "time:" + t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return "nil"
		}
		return "time:" + t.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return "dur:" + t.String()
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		// not stable across processes; the type name is the only safe component
		return "opaque:" + rt.String()
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return "slice" + s.serializeList(rv)
	case reflect.Array:
		return "array" + s.serializeList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)
	case reflect.Struct:
		return s.serializeStruct(rv, rt)
	case reflect.String:
		return strconv.Quote(rv.String())
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return fmt.Sprintf("%v", v)
	}

	return s.jsonFallback(v)
}

func (s defaultSerializer) serializeList(rv reflect.Value) string {
	n := rv.Len()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("[%d]{%s}", n, strings.Join(parts, ","))
}

// serializeMap sorts by the serialized key so output is deterministic.
func (s defaultSerializer) serializeMap(rv reflect.Value) string {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, pair{
			k: s.serializeValue(iter.Key().Interface()),
			v: s.serializeValue(iter.Value().Interface()),
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}
	return fmt.Sprintf("map[%d]{%s}", len(parts), strings.Join(parts, ","))
}

func (s defaultSerializer) serializeStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.serializeValue(rv.Field(i).Interface()))
	}
	return rt.Name() + "{" + strings.Join(parts, ",") + "}"
}

func (s defaultSerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}
