package types

import (
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"
)

// Component is the interface user-defined component types implement. A
// component must be a plain struct whose Name method uses a value receiver,
// since storage instantiates fresh values through reflection.
type Component interface {
	// Name returns the unique name of the component type.
	Name() string
}

// SchemaOf returns the JSON schema of a component or message value. The schema
// is what the runtime stores in its catalog and compares when a name is
// registered twice.
func SchemaOf(value any) ([]byte, error) {
	schema, err := jsonschema.Reflect(value).MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "value must be json serializable")
	}
	return schema, nil
}

// SameSchema reports whether two JSON schemas describe the same shape.
func SameSchema(a []byte, b []byte) (bool, error) {
	patch, err := jsondiff.CompareJSON(a, b)
	if err != nil {
		return false, eris.Wrap(err, "failed to compare schemas")
	}
	return patch.String() == "", nil
}

// DiffSchemas returns a human-readable JSON patch describing how schema b
// diverges from schema a. An empty string means the schemas match.
func DiffSchemas(a []byte, b []byte) (string, error) {
	patch, err := jsondiff.CompareJSON(a, b)
	if err != nil {
		return "", eris.Wrap(err, "failed to compare schemas")
	}
	return patch.String(), nil
}

// MatchesSchema reports whether the component's current shape still matches a
// previously captured schema.
func MatchesSchema(component Component, schema []byte) (bool, error) {
	current, err := SchemaOf(component)
	if err != nil {
		return false, err
	}
	return SameSchema(current, schema)
}
