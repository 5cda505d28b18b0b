package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/bndr/gotabulate"
)

const (
	// ResourceTypeKey marks decoded records with the resource that
	// produced them, for formatting and logging only.
	ResourceTypeKey = "@resourceType"
	customRawKey    = "@raw" // used to store non-object JSON values in a Record
)

var empty = struct{}{}

// printableAttrs lists the record attributes rendered by PrettyTable.
// Anything else collapses into a single remaining-attrs cell.
var printableAttrs = map[string]struct{}{
	"uid":              empty,
	"name":             empty,
	"status":           empty,
	"state":            empty,
	"type":             empty,
	"memory_size":      empty,
	"port":             empty,
	"addr":             empty,
	"role":             empty,
	"email":            empty,
	"version":          empty,
	"software_version": empty,
	"shards_count":     empty,
	"action_uid":       empty,
	"progress":         empty,
	"time":             empty,
}

// FillFunc populates a struct from a generic Record map.
type FillFunc func(Record, any) error

var fillFunc FillFunc = func(r Record, container any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	// FlexibleUnmarshal tolerates numeric values arriving for string fields.
	return FlexibleUnmarshal(data, container)
}

//  ######################################################
//              FUNCTION PARAMS
//  ######################################################

// Params represents a generic set of key-value parameters, used for
// constructing query strings or request bodies.
type Params map[string]any

// FileData represents a file to be uploaded in multipart form data.
type FileData struct {
	Filename string
	Content  []byte
}

// ToQuery serializes the Params into a URL-encoded query string.
func (pr *Params) ToQuery() string {
	values := url.Values{}
	for k, v := range *pr {
		values.Set(k, fmt.Sprint(v))
	}
	return values.Encode()
}

// ToBody serializes the Params into a JSON-encoded io.Reader, suitable for
// use as the body of a POST, PUT or PATCH request.
func (pr *Params) ToBody() (io.Reader, error) {
	buffer, err := json.Marshal(*pr)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buffer), nil
}

// MultipartFormData is the result of ToMultipartFormData.
type MultipartFormData struct {
	Body        io.Reader
	ContentType string
}

// ToMultipartFormData serializes the Params into multipart/form-data.
// Files should be provided as FileData values in the Params map.
func (pr *Params) ToMultipartFormData() (*MultipartFormData, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for key, value := range *pr {
		switch v := value.(type) {
		case FileData:
			fileWriter, err := writer.CreateFormFile(key, v.Filename)
			if err != nil {
				return nil, fmt.Errorf("failed to create form file for %s: %w", key, err)
			}
			if _, err := fileWriter.Write(v.Content); err != nil {
				return nil, fmt.Errorf("failed to write file content for %s: %w", key, err)
			}
		case []byte:
			fileWriter, err := writer.CreateFormFile(key, key)
			if err != nil {
				return nil, fmt.Errorf("failed to create form file for %s: %w", key, err)
			}
			if _, err := fileWriter.Write(v); err != nil {
				return nil, fmt.Errorf("failed to write byte content for %s: %w", key, err)
			}
		default:
			if err := writer.WriteField(key, fmt.Sprintf("%v", value)); err != nil {
				return nil, fmt.Errorf("failed to write field %s: %w", key, err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &MultipartFormData{
		Body:        &body,
		ContentType: writer.FormDataContentType(),
	}, nil
}

// Update merges another Params map into the original Params. Existing keys
// are kept unless override is set.
func (pr *Params) Update(other Params, override bool) {
	for key, value := range other {
		if _, exists := (*pr)[key]; exists && !override {
			continue
		}
		(*pr)[key] = value
	}
}

// Without removes the specified keys from the Params map.
func (pr *Params) Without(keys ...string) {
	for _, key := range keys {
		delete(*pr, key)
	}
}

// FromStruct merges the fields of any struct into Params, keyed by json
// tags. Zero-valued optional fields tagged omitempty are skipped.
func (pr *Params) FromStruct(obj any) error {
	if obj == nil {
		return nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	var structMap map[string]any
	if err := json.Unmarshal(data, &structMap); err != nil {
		return err
	}
	for key, value := range structMap {
		(*pr)[key] = value
	}
	return nil
}

// NewParamsFromStruct creates a new Params map from any struct, respecting
// json tags.
func NewParamsFromStruct(obj any) (Params, error) {
	params := make(Params)
	if obj == nil {
		return params, nil
	}
	err := params.FromStruct(obj)
	return params, err
}

//  ######################################################
//              RETURN TYPES
//  ######################################################

// Renderable is an interface implemented by types that can render
// themselves into a human-readable string, typically for CLI display or
// logging.
type Renderable interface {
	PrettyTable() string
	PrettyJson(indent ...string) string
}

// Filler is a generic interface for filling a struct or slice of structs.
type Filler interface {
	Fill(container any) error
}

// DisplayableRecord combines rendering and data population capabilities.
// Implemented by Record and RecordSet.
type DisplayableRecord interface {
	Renderable
	Filler
}

// Record represents a single generic data object as a key-value map.
// When a response is empty (e.g. 204 No Content), an empty Record{} is
// returned.
type Record map[string]any

// RecordSet represents a list of Record objects.
type RecordSet []Record

// RecordUnion defines a union of supported record types for generic
// operations.
type RecordUnion interface {
	Record | RecordSet
}

// Fill populates the exported fields of the given struct pointer using
// values from the Record. Keys map to struct fields via `json` tags, with
// tolerant type conversion for string fields receiving numbers.
func (r Record) Fill(container any) error {
	val := reflect.ValueOf(container)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("container must be a non-nil pointer to a struct")
	}
	if val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("container must point to a struct")
	}
	return fillFunc(r, container)
}

// RecordUID returns the numeric "uid" of the record. Panics if absent,
// matching the contract that callers only ask for UIDs on records that
// have them.
func (r Record) RecordUID() int64 {
	uidVal, ok := r["uid"]
	if !ok {
		panic(fmt.Sprintf("record uid not found in record %s", r.PrettyJson()))
	}
	uid, err := toInt(uidVal)
	if err != nil {
		panic(err)
	}
	return uid
}

// RecordName returns the "name" attribute of the record as a string.
func (r Record) RecordName() string {
	nameVal, ok := r["name"]
	if !ok {
		panic(fmt.Sprintf("record name not found in record %s", r.PrettyJson()))
	}
	return fmt.Sprintf("%v", nameVal)
}

// RecordActionUID returns the "action_uid" attribute, or "" when the
// record does not reference a long-running action.
func (r Record) RecordActionUID() string {
	if uid, ok := r["action_uid"]; ok {
		return fmt.Sprintf("%v", uid)
	}
	return ""
}

// SetMissingValue sets key to value only if key is not already present.
func (r Record) SetMissingValue(key string, value any) {
	if _, exists := r[key]; !exists {
		r[key] = value
	}
}

// PrettyTable prints a single Record as a table.
func (r Record) PrettyTable() string {
	headers := []string{"attr", "value"}
	var rows [][]any
	var name string
	if resourceTyp, ok := r[ResourceTypeKey]; ok {
		name = fmt.Sprintf("%v", resourceTyp)
	}
	if len(r) == 0 {
		return "<>"
	}
	for _, key := range getPrintableAttrs(r) {
		if val, ok := r[key]; ok && val != nil {
			rows = append(rows, []any{key, fmt.Sprintf("%v", val)})
		}
	}
	remainingAttrs := make(map[string]any)
	for key, value := range r {
		if _, ok := printableAttrs[key]; !ok {
			if key == ResourceTypeKey || value == nil {
				continue
			}
			remainingAttrs[key] = value
		}
	}
	if len(remainingAttrs) > 0 {
		remainingJSON, _ := json.Marshal(remainingAttrs)
		rows = append(rows, []any{"<<remaining attrs>>", string(remainingJSON)})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders(headers)
	t.SetAlign("left")
	t.SetWrapStrings(true)
	t.SetMaxCellSize(85)
	if name != "" {
		return fmt.Sprintf("%s:\n%s", name, t.Render("grid"))
	}
	return fmt.Sprintf("\n%s", t.Render("grid"))
}

// PrettyJson prints the Record as JSON, optionally indented.
func (r Record) PrettyJson(indent ...string) string {
	var b []byte
	var err error
	if len(indent) > 0 {
		b, err = json.MarshalIndent(r, "", indent[0])
	} else {
		b, err = json.Marshal(r)
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}

func (r Record) Empty() bool {
	return len(r) == 0
}

func (r Record) String() string {
	return r.PrettyTable()
}

// Fill populates the provided container slice with data from the
// RecordSet. The container must be a non-nil pointer to a slice of structs
// (or pointers to structs).
func (rs RecordSet) Fill(container any) error {
	val := reflect.ValueOf(container)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("container must be a non-nil pointer to a slice")
	}
	sliceVal := val.Elem()
	if sliceVal.Kind() != reflect.Slice {
		return fmt.Errorf("container must point to a slice")
	}

	elemType := sliceVal.Type().Elem()
	isPtrElem := elemType.Kind() == reflect.Ptr

	var targetType reflect.Type
	if isPtrElem {
		if elemType.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("slice element must be pointer to a struct")
		}
		targetType = elemType.Elem()
	} else {
		if elemType.Kind() != reflect.Struct {
			return fmt.Errorf("slice element must be a struct")
		}
		targetType = elemType
	}

	for _, record := range rs {
		elemPtr := reflect.New(targetType)
		if err := record.Fill(elemPtr.Interface()); err != nil {
			return err
		}
		if isPtrElem {
			sliceVal.Set(reflect.Append(sliceVal, elemPtr))
		} else {
			sliceVal.Set(reflect.Append(sliceVal, elemPtr.Elem()))
		}
	}
	return nil
}

// PrettyTable prints the full RecordSet by rendering each individual Record.
func (rs RecordSet) PrettyTable() string {
	if len(rs) == 0 {
		return "[]"
	}
	var out strings.Builder
	out.WriteString("[\n")
	for i, record := range rs {
		out.WriteString(record.PrettyTable())
		if i < len(rs)-1 {
			out.WriteString("\n\n")
		}
	}
	out.WriteString("\n]")
	return out.String()
}

func (rs RecordSet) Empty() bool {
	return len(rs) == 0
}

// PrettyJson prints the RecordSet as JSON, optionally indented.
func (rs RecordSet) PrettyJson(indent ...string) string {
	var b []byte
	var err error
	if len(indent) > 0 {
		b, err = json.MarshalIndent(rs, "", indent[0])
	} else {
		b, err = json.Marshal(rs)
	}
	if err != nil {
		return fmt.Sprintf("failed to marshal JSON: %v", err)
	}
	return string(b)
}

// getPrintableAttrs returns the sorted subset of keys rendered explicitly.
func getPrintableAttrs(r Record) []string {
	var attrs []string
	for key := range r {
		if _, ok := printableAttrs[key]; ok {
			attrs = append(attrs, key)
		}
	}
	sort.Strings(attrs)
	return attrs
}

// unmarshalBodyToRecordUnion parses a response body into one of the
// supported record types:
//   - Record: a single JSON object (empty Record{} for empty bodies).
//   - RecordSet: a JSON array.
//
// Non-object array elements and bare JSON strings are wrapped under the
// raw key so they survive the Record shape.
func unmarshalBodyToRecordUnion(statusCode int, body []byte) (Renderable, error) {
	if statusCode == http.StatusNoContent {
		return Record{}, nil
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Record{}, nil
	}
	switch trimmed[0] {
	case '{':
		var rec Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, err
		}
		return rec, nil
	case '[':
		var recSet RecordSet
		if err := json.Unmarshal(trimmed, &recSet); err == nil {
			return recSet, nil
		}
		var anySlice []any
		if err := json.Unmarshal(trimmed, &anySlice); err != nil {
			return nil, err
		}
		recordSet := make(RecordSet, len(anySlice))
		for i, item := range anySlice {
			recordSet[i] = Record{customRawKey: item}
		}
		return recordSet, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return Record{customRawKey: s}, nil
	default:
		return nil, fmt.Errorf("unsupported JSON format: must be object or array")
	}
}

// typeMatch checks whether the dynamic type of the given Renderable value
// matches the generic type T at runtime.
func typeMatch[T RecordUnion](val Renderable) bool {
	var zero T
	return reflect.TypeOf(val) == reflect.TypeOf(zero)
}

// setResourceKey tags a decoded value with its resource type (only if not
// already set).
func setResourceKey(result Renderable, resourceType string) error {
	switch typed := result.(type) {
	case Record:
		typed.SetMissingValue(ResourceTypeKey, resourceType)
	case RecordSet:
		for _, record := range typed {
			record.SetMissingValue(ResourceTypeKey, resourceType)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported type %T for result", result)
	}
	return nil
}

// ToRecord converts a raw map into a Record.
func ToRecord(m map[string]any) Record {
	return Record(m)
}

func toInt(val any) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", val)
	}
}
