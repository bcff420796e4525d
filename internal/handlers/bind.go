package handlers

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/travelbooking/catalog-api/internal/services"
)

// typeProblemSink is an input that carries its body type mismatches into validation
type typeProblemSink interface {
	SetTypeProblems(problems []string)
}

var (
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// bindJSON decodes the request body into dst.
//
// Fields whose JSON type does not match are left unset and every mismatch is
// listed. Inputs that accept type problems get them attached so the service
// reports them together with its own rules; other targets fail right away.
func bindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindBodyWith(dst, binding.JSON)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return services.NewValidationError("request body must be valid JSON")
	case errors.Is(err, io.EOF):
		return services.NewValidationError("request body is required")
	default:
		return services.NewValidationError(err.Error())
	}

	var body []byte
	if cached, ok := c.Get(gin.BodyBytesKey); ok {
		body, _ = cached.([]byte)
	}
	problems := typeMismatches(body, reflect.TypeOf(dst))
	if len(problems) == 0 {
		problems = []string{fmt.Sprintf("%s must be %s", fieldOrBody(typeErr.Field), jsonKind(typeErr.Type))}
	}

	if sink, ok := dst.(typeProblemSink); ok {
		sink.SetTypeProblems(problems)
		return nil
	}
	return services.NewValidationError(problems...)
}

func fieldOrBody(field string) string {
	if field == "" {
		return "request body"
	}
	return field
}

// typeMismatches lists every value of body whose JSON type cannot decode into
// the matching part of t, as "<path> must be <kind>"
func typeMismatches(body []byte, t reflect.Type) []string {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil
	}
	var problems []string
	walkJSON("", raw, t, &problems)
	return problems
}

func walkJSON(path string, value interface{}, t reflect.Type, problems *[]string) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	// null decodes into anything as the zero value
	if value == nil {
		return
	}
	mismatch := func() {
		*problems = append(*problems, fmt.Sprintf("%s must be %s", fieldOrBody(path), jsonKind(t)))
	}

	ptr := reflect.PointerTo(t)
	if ptr.Implements(jsonUnmarshalerType) {
		return
	}
	if ptr.Implements(textUnmarshalerType) {
		if _, ok := value.(string); !ok {
			mismatch()
		}
		return
	}

	switch t.Kind() {
	case reflect.Interface:
	case reflect.String:
		if _, ok := value.(string); !ok {
			mismatch()
		}
	case reflect.Bool:
		if _, ok := value.(bool); !ok {
			mismatch()
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := value.(json.Number)
		if !ok {
			mismatch()
			return
		}
		if _, err := n.Int64(); err != nil {
			*problems = append(*problems, fmt.Sprintf("%s must be an integer", fieldOrBody(path)))
		}
	case reflect.Float32, reflect.Float64:
		if _, ok := value.(json.Number); !ok {
			mismatch()
		}
	case reflect.Slice, reflect.Array:
		list, ok := value.([]interface{})
		if !ok {
			mismatch()
			return
		}
		for i, elem := range list {
			walkJSON(fmt.Sprintf("%s[%d]", path, i), elem, t.Elem(), problems)
		}
	case reflect.Map:
		obj, ok := value.(map[string]interface{})
		if !ok {
			mismatch()
			return
		}
		for key, elem := range obj {
			walkJSON(joinPath(path, key), elem, t.Elem(), problems)
		}
	case reflect.Struct:
		obj, ok := value.(map[string]interface{})
		if !ok {
			mismatch()
			return
		}
		walkStruct(path, obj, t, problems)
	}
}

// walkStruct matches object keys to fields the way encoding/json does:
// exact json name first, then case-insensitively
func walkStruct(path string, obj map[string]interface{}, t reflect.Type, problems *[]string) {
	fields := jsonFields(t)
	for _, key := range sortedKeys(obj) {
		ft, ok := fields[key]
		if !ok {
			for name, candidate := range fields {
				if strings.EqualFold(name, key) {
					ft, ok = candidate, true
					break
				}
			}
		}
		if ok {
			walkJSON(joinPath(path, key), obj[key], ft, problems)
		}
	}
}

// jsonFields maps the json names of t's exported fields, flattening embedded structs
func jsonFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			for k, v := range jsonFields(f.Type) {
				if _, taken := fields[k]; !taken {
					fields[k] = v
				}
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[name] = f.Type
	}
	return fields
}

func sortedKeys(obj map[string]interface{}) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	// stable problem order for equal payloads
	sort.Strings(keys)
	return keys
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return "a string"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Bool:
		return "a boolean"
	}
	return "a " + t.Kind().String()
}
