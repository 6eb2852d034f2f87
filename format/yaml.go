package format

import (
	"sigs.k8s.io/yaml"
)

// DecodeYAML decodes a YAML object into the same shapes DecodeJSON produces.
func DecodeYAML(data []byte, opts ...Option) (map[string]any, error) {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, parseIssue("", err)
	}
	return DecodeJSON(j, opts...)
}

// DecodeYAMLMany decodes a YAML sequence of objects.
func DecodeYAMLMany(data []byte, opts ...Option) ([]map[string]any, error) {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, parseIssue("", err)
	}
	return DecodeJSONMany(j, opts...)
}

// EncodeYAML encodes v as YAML with sorted keys.
func EncodeYAML(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
