package deploytemplate

import (
	"bytes"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/ghodss/yaml"
	"github.com/xeipuuv/gojsonschema"

	"github.com/shipyard-ci/shipctl/sdk"
)

// ToJSON converts YAML or JSON values to JSON. Empty values are an empty object.
func ToJSON(values []byte) ([]byte, error) {
	if len(bytes.TrimSpace(values)) == 0 {
		return []byte("{}"), nil
	}
	js, err := yaml.YAMLToJSON(values)
	if err != nil {
		return nil, sdk.NewErrorFrom(sdk.ErrInvalidTemplate, "unable to parse values: %v", err)
	}
	return js, nil
}

// ToYAML converts JSON values to YAML.
func ToYAML(values []byte) ([]byte, error) {
	y, err := yaml.JSONToYAML(values)
	if err != nil {
		return nil, sdk.NewErrorFrom(sdk.ErrInvalidTemplate, "unable to convert values: %v", err)
	}
	return y, nil
}

// Override returns the JSON values of base overridden by override.
// A null in override removes the key from base.
func Override(base, override []byte) ([]byte, error) {
	b, err := ToJSON(base)
	if err != nil {
		return nil, err
	}
	o, err := ToJSON(override)
	if err != nil {
		return nil, err
	}
	res, err := jsonpatch.MergePatch(b, o)
	if err != nil {
		return nil, sdk.NewErrorFrom(sdk.ErrInvalidTemplate, "unable to apply override: %v", err)
	}
	return res, nil
}

// Diff returns, as YAML, the minimal override turning base into effective.
func Diff(base, effective []byte) ([]byte, error) {
	b, err := ToJSON(base)
	if err != nil {
		return nil, err
	}
	e, err := ToJSON(effective)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(b, e)
	if err != nil {
		return nil, sdk.NewErrorFrom(sdk.ErrInvalidTemplate, "unable to compute override: %v", err)
	}
	return ToYAML(patch)
}

// Validate checks the values against a JSON schema. An empty schema accepts anything.
func Validate(schema, values []byte) error {
	if len(bytes.TrimSpace(schema)) == 0 {
		return nil
	}
	v, err := ToJSON(values)
	if err != nil {
		return err
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(v))
	if err != nil {
		return sdk.NewErrorFrom(sdk.ErrInvalidTemplate, "unable to validate values: %v", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	sort.Strings(msgs)
	return sdk.NewErrorFrom(sdk.ErrInvalidTemplate, "%s", strings.Join(msgs, "; "))
}
