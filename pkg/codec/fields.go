package codec

import (
	"encoding/hex"
	"encoding/json"
	"reflect"
	"strings"
)

// jsonFieldName mirrors encoding/json's struct tag rules closely enough for
// canonical encoding: a "json" tag of "-" skips the field, a tag name
// overrides the field name, and ",omitempty" is honored.
func jsonFieldName(f reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = f.Name
	if parts[0] != "" {
		name = parts[0]
	}
	for _, p := range parts[1:] {
		if p == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// jsonMarshalString reuses encoding/json's string escaping so canonical
// output stays valid UTF-8 JSON without hand-rolling escape rules.
func jsonMarshalString(s string) ([]byte, error) {
	return json.Marshal(s)
}

func bytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
