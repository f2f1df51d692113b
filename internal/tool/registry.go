package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
)

// Param describes one entry of a tool's input contract.
type Param struct {
	Name        string
	Type        string
	Required    bool
	Default     any
	Description string
}

// Descriptor is a static catalog entry.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
}

// InputSchema returns the JSON schema published for d.
func (d Descriptor) InputSchema() *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(d.Params)),
		Required:   []string{},
	}

	for _, p := range d.Params {
		prop := &jsonschema.Schema{
			Type:        p.Type,
			Description: p.Description,
		}
		if p.Default != nil {
			if raw, err := json.Marshal(p.Default); err == nil {
				prop.Default = raw
			}
		}
		schema.Properties[p.Name] = prop

		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}

	return schema
}

// Handler runs a tool with validated arguments and returns text blocks.
type Handler func(ctx context.Context, args Arguments) ([]string, error)

// Tool binds a descriptor to its handler.
type Tool struct {
	Descriptor
	Handler Handler
}

// Result is the outcome of a call: text blocks on success, Err on failure.
type Result struct {
	Content []string
	Err     error
}

// Failed reports whether the call failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// NewRegistry builds an immutable registry. Tool order is preserved by List.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:  make([]Tool, 0, len(tools)),
		byName: make(map[string]int, len(tools)),
	}

	for _, t := range tools {
		if t.Name == "" {
			return nil, errors.New("tool without name")
		}
		if t.Handler == nil {
			return nil, fmt.Errorf("tool %s has no handler", t.Name)
		}
		if _, ok := r.byName[t.Name]; ok {
			return nil, fmt.Errorf("duplicate tool %s", t.Name)
		}

		r.byName[t.Name] = len(r.tools)
		r.tools = append(r.tools, t)
	}

	return r, nil
}

// Registry validates calls against the catalog and routes them to handlers.
type Registry struct {
	tools  []Tool
	byName map[string]int
}

// List returns the catalog in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.Descriptor)
	}
	return out
}

// Call validates args, fills defaults and runs the named tool. It never
// panics and never returns a nil error for a failed call.
func (r *Registry) Call(ctx context.Context, name string, args Arguments) Result {
	idx, ok := r.byName[name]
	if !ok {
		return Result{Err: &UnknownToolError{Name: name}}
	}
	t := r.tools[idx]

	filled, err := t.prepare(args)
	if err != nil {
		return Result{Err: err}
	}

	callID := uuid.NewString()
	start := time.Now()
	log.Printf("tool call %s: %s started\n", callID, name)

	content, err := t.run(ctx, filled)
	if err != nil {
		log.Println(fmt.Errorf("tool call %s: %s failed after %s: %w", callID, name, time.Since(start), err))
		return Result{Err: &HandlerError{Tool: name, Err: err}}
	}

	log.Printf("tool call %s: %s finished in %s\n", callID, name, time.Since(start))

	return Result{Content: content}
}

func (t Tool) prepare(args Arguments) (Arguments, error) {
	filled := make(Arguments, len(args)+len(t.Params))
	for k, v := range args {
		if v != nil {
			filled[k] = v
		}
	}

	for _, p := range t.Params {
		if _, ok := filled[p.Name]; ok {
			continue
		}
		if p.Required {
			return nil, &MissingParameterError{Tool: t.Name, Param: p.Name}
		}
		if p.Default != nil {
			filled[p.Name] = p.Default
		}
	}

	return filled, nil
}

func (t Tool) run(ctx context.Context, args Arguments) (content []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	return t.Handler(ctx, args)
}
