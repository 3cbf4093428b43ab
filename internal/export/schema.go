package export

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema reflects a JSON Schema document for the given report type so
// downstream consumers get a format contract for exported files.
func Schema(value any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}
