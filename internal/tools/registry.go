// Package tools exposes the analysis, ingestion, chart, SQL and report
// operations as named commands with JSON arguments.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/KaramelBytes/dataloom-cli/internal/metrics"
	"github.com/google/jsonschema-go/jsonschema"
)

// Command is one invocable tool.
type Command interface {
	Name() string
	Description() string
	Schema() *jsonschema.Schema
	Call(ctx context.Context, ws *Workspace, raw json.RawMessage) (any, error)
}

// tool adapts a typed handler to Command. A is the argument struct; its
// JSON schema is derived once from the struct tags.
type tool[A any] struct {
	name     string
	desc     string
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
	run      func(ctx context.Context, ws *Workspace, args A) (any, error)
}

func newTool[A any](name, desc string, run func(context.Context, *Workspace, A) (any, error)) Command {
	schema, err := jsonschema.For[A](nil)
	if err != nil {
		panic(fmt.Sprintf("tools: schema for %s: %v", name, err))
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("tools: resolve schema for %s: %v", name, err))
	}
	return &tool[A]{name: name, desc: desc, schema: schema, resolved: resolved, run: run}
}

func (t *tool[A]) Name() string               { return t.name }
func (t *tool[A]) Description() string        { return t.desc }
func (t *tool[A]) Schema() *jsonschema.Schema { return t.schema }

func (t *tool[A]) Call(ctx context.Context, ws *Workspace, raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, errinfo.Invalid("Invalid arguments for %s: %v", t.name, err)
	}
	if err := t.resolved.Validate(instance); err != nil {
		return nil, errinfo.Invalid("Invalid arguments for %s: %v", t.name, err)
	}
	var args A
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&args); err != nil {
		return nil, errinfo.Invalid("Invalid arguments for %s: %v", t.name, err)
	}
	return t.run(ctx, ws, args)
}

// Spec describes a tool to a model or MCP client.
type Spec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// Registry is the closed set of tools. It is safe for concurrent use; the
// set never changes after construction.
type Registry struct {
	byName map[string]Command
	order  []string
	logger *slog.Logger
}

// NewRegistry builds the registry from cmds. Duplicate names panic.
func NewRegistry(logger *slog.Logger, cmds ...Command) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{byName: make(map[string]Command, len(cmds)), logger: logger}
	for _, c := range cmds {
		if _, dup := r.byName[c.Name()]; dup {
			panic("tools: duplicate tool " + c.Name())
		}
		r.byName[c.Name()] = c
		r.order = append(r.order, c.Name())
	}
	return r
}

// Default returns the registry with every built-in tool.
func Default(logger *slog.Logger) *Registry {
	return NewRegistry(logger, Builtin()...)
}

// Names lists tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Catalog describes every tool in registration order.
func (r *Registry) Catalog() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		c := r.byName[name]
		out = append(out, Spec{Name: c.Name(), Description: c.Description(), InputSchema: c.Schema()})
	}
	return out
}

// Invoke runs one tool against ws. Failures are returned as error results,
// never as Go errors.
func (r *Registry) Invoke(ctx context.Context, ws *Workspace, name string, raw json.RawMessage) Result {
	c, ok := r.byName[name]
	if !ok {
		known := r.Names()
		sort.Strings(known)
		return Failure(errinfo.Invalid("Unknown tool '%s'. Available: %s", name, strings.Join(known, ", ")))
	}

	start := time.Now()
	payload, err := c.Call(ctx, ws, raw)
	metrics.ToolCallDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	var res Result
	if err != nil {
		res = Failure(err)
		metrics.ToolCallsTotal.WithLabelValues(name, StatusError).Inc()
		r.logger.Warn("tool failed", "tool", name, "code", res.Code(), "error", err, "duration", time.Since(start))
	} else {
		res = Success(payload)
		metrics.ToolCallsTotal.WithLabelValues(name, StatusSuccess).Inc()
		r.logger.Debug("tool finished", "tool", name, "duration", time.Since(start))
	}
	return res
}
