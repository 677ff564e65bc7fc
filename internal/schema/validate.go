// Package schema validates tool-call parameters against each tool's
// declared JSON Schema before the parameters reach the tool server.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var cache sync.Map // map[string]*jsonschema.Schema, keyed by tool name + ":" + raw schema bytes

// Compile compiles and caches a tool's input schema. Schemas are small and
// repeated across hops, so compiling once per distinct schema body is
// enough to keep Plan-stage validation cheap.
func Compile(name string, rawSchema []byte) (*jsonschema.Schema, error) {
	key := name + ":" + string(rawSchema)
	if cached, ok := cache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	var decoded any
	if err := json.Unmarshal(rawSchema, &decoded); err != nil {
		return nil, fmt.Errorf("decode schema for %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name+".json", decoded); err != nil {
		return nil, fmt.Errorf("add schema resource for %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name + ".json")
	if err != nil {
		return nil, fmt.Errorf("compile schema for %s: %w", name, err)
	}

	cache.Store(key, compiled)
	return compiled, nil
}

// ValidateParams validates params (already-injected, trusted-field-safe)
// against the tool's input schema. A nil error means params is acceptable
// to send to the tool server.
func ValidateParams(toolName string, rawSchema []byte, params map[string]any) error {
	compiled, err := Compile(toolName, rawSchema)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params for %s: %w", toolName, err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("decode params for %s: %w", toolName, err)
	}

	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("params for %s failed validation: %w", toolName, err)
	}
	return nil
}
