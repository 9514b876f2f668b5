package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator validates event payloads against JSON Schema definitions
// registered per event type. Types without a registered schema pass.
type Validator struct {
	mu       sync.RWMutex
	schemas  map[Type]json.RawMessage
	compiled map[Type]*jsonschema.Schema
}

// NewValidator creates an empty payload validator.
func NewValidator() *Validator {
	return &Validator{
		schemas:  make(map[Type]json.RawMessage),
		compiled: make(map[Type]*jsonschema.Schema),
	}
}

// Register attaches a JSON Schema to an event type. A nil schema removes
// any previous registration.
func (v *Validator) Register(t Type, schema json.RawMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if schema == nil {
		delete(v.schemas, t)
		delete(v.compiled, t)

		return
	}

	v.schemas[t] = schema
	delete(v.compiled, t)
}

// Validate checks an event's payload against the schema registered for its
// type. Events of unregistered types pass unconditionally.
func (v *Validator) Validate(evt *Event) error {
	v.mu.RLock()
	schema, ok := v.schemas[evt.Type]
	v.mu.RUnlock()

	if !ok {
		return nil
	}

	compiled, err := v.compile(evt.Type, schema)
	if err != nil {
		return fmt.Errorf("schema compilation error: %w", err)
	}

	// The compiler validates decoded JSON values, so round-trip the payload.
	raw, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var doc any
	if unmarshalErr := json.Unmarshal(raw, &doc); unmarshalErr != nil {
		return fmt.Errorf("unmarshal payload: %w", unmarshalErr)
	}

	return compiled.Validate(doc)
}

// compile returns the compiled schema for a type, caching the result until
// the registration changes.
func (v *Validator) compile(t Type, schema json.RawMessage) (*jsonschema.Schema, error) {
	v.mu.RLock()
	if cached, ok := v.compiled[t]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	var doc any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Use a unique URL as the schema resource identifier.
	url := "roomlog://schema/" + string(t)

	c := jsonschema.NewCompiler()
	if addErr := c.AddResource(url, doc); addErr != nil {
		return nil, fmt.Errorf("add schema resource: %w", addErr)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.mu.Lock()
	v.compiled[t] = compiled
	v.mu.Unlock()

	return compiled, nil
}
