package core

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FlexibleUnmarshal unmarshals JSON with tolerant type conversion for
// string fields. Cluster endpoints occasionally report numeric or boolean
// values for attributes typed as strings (port numbers, version labels);
// when a string field in the target struct receives such a value, it is
// converted rather than failing the decode.
func FlexibleUnmarshal(data []byte, target any) error {
	var rawData map[string]any
	if err := json.Unmarshal(data, &rawData); err != nil {
		return err
	}

	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr {
		return fmt.Errorf("target must be a pointer")
	}
	targetElem := targetValue.Elem()
	if targetElem.Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to struct")
	}

	converted := convertMapForStruct(rawData, targetElem.Type())
	convertedJSON, err := json.Marshal(converted)
	if err != nil {
		return err
	}
	return json.Unmarshal(convertedJSON, target)
}

// convertMapForStruct recursively converts map values to match struct
// field types.
func convertMapForStruct(data map[string]any, structType reflect.Type) map[string]any {
	result := make(map[string]any)
	for key, value := range data {
		field, found := findFieldByJSONTag(structType, key)
		if !found {
			result[key] = value
			continue
		}
		result[key] = convertValue(value, field.Type)
	}
	return result
}

func convertValue(value any, targetType reflect.Type) any {
	if value == nil {
		return nil
	}
	if targetType.Kind() == reflect.Ptr {
		return convertValue(value, targetType.Elem())
	}
	if targetType.Kind() == reflect.String {
		return convertToString(value)
	}
	if targetType.Kind() == reflect.Slice {
		if arr, ok := value.([]any); ok {
			result := make([]any, len(arr))
			elemType := targetType.Elem()
			for i, item := range arr {
				result[i] = convertValue(item, elemType)
			}
			return result
		}
	}
	if targetType.Kind() == reflect.Struct {
		if m, ok := value.(map[string]any); ok {
			return convertMapForStruct(m, targetType)
		}
	}
	return value
}

func convertToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// findFieldByJSONTag locates the struct field whose json tag (or name)
// matches key.
func findFieldByJSONTag(structType reflect.Type, key string) (reflect.StructField, bool) {
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" {
			if strings.EqualFold(field.Name, key) {
				return field, true
			}
			continue
		}
		tagName := strings.Split(tag, ",")[0]
		if tagName == key {
			return field, true
		}
	}
	return reflect.StructField{}, false
}
