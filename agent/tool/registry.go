package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
)

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeArray   ParamType = "array"
)

type Param struct {
	Name     string
	Type     ParamType
	Desc     string
	Required bool
	Enum     []string
	// Items is the element type of an array parameter.
	Items   ParamType
	Minimum *float64
	Maximum *float64
	Default any
}

// Handler runs one tool. The payload is merged into the result envelope on
// success and, when non-nil, on failure too.
type Handler func(ctx context.Context, args Args) (message string, payload map[string]any, err error)

type Spec struct {
	Name        string
	Description string
	Params      []Param
	// AnyOf lists alternative sets of parameters of which at least one must be present.
	AnyOf [][]string
	// AnyOfMessage replaces the generic message reported when no AnyOf group is satisfied.
	AnyOfMessage string
	Handler      Handler
}

type Registry struct {
	specs  []Spec
	byName map[string]int
	logger zerolog.Logger
}

var _ contractx.ToolInvoker = (*Registry)(nil)

func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{
		specs:  make([]Spec, 0, len(specs)),
		byName: make(map[string]int, len(specs)),
		logger: log.With().Str("component", "tool_registry").Logger(),
	}
	for _, s := range specs {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("tool name is required")
		}
		if s.Handler == nil {
			return nil, fmt.Errorf("tool %s has no handler", s.Name)
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("tool %s registered twice", s.Name)
		}
		r.byName[s.Name] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	return r, nil
}

func MustNewRegistry(specs ...Spec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Specs returns the registered tools in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for _, s := range r.specs {
		names = append(names, s.Name)
	}
	return names
}

// Invoke routes a call to the named tool. It always returns a well-formed
// envelope: unknown tools, handler errors and panics become failures.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (res contractx.ToolResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("tool", name).Interface("panic", rec).Msg("tool panicked")
			res = contractx.ToolResult{
				Tool:      name,
				Message:   fmt.Sprintf("Internal error while running %s", name),
				ErrorKind: contractx.ErrorKindInternal,
			}
		}
		ev := r.logger.Info()
		if !res.Success {
			ev = r.logger.Warn().Str("error_kind", string(res.ErrorKind))
		}
		ev.Str("tool", name).
			Dur("duration", time.Since(start)).
			Bool("success", res.Success).
			Msg("tool call")
	}()

	idx, ok := r.byName[name]
	if !ok {
		return contractx.Failure(name, contractx.NotFound("Unknown tool: %s. Available tools: %s", name, strings.Join(r.Names(), ", ")))
	}
	spec := r.specs[idx]

	in := Args(args)
	if in == nil {
		in = Args{}
	}
	if err := spec.check(in); err != nil {
		return contractx.Failure(name, err)
	}

	msg, payload, err := spec.Handler(ctx, in)
	if err != nil {
		out := contractx.Failure(name, err)
		out.Payload = payload
		return out
	}
	return contractx.ToolResult{
		Tool:    name,
		Success: true,
		Message: msg,
		Payload: payload,
	}
}

// check enforces required parameters, enumerations and anyOf groups.
func (s Spec) check(args Args) error {
	var missing []string
	for _, p := range s.Params {
		if p.Required && !present(args, p.Name) {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return contractx.Validation("Missing required parameters: %s", strings.Join(missing, ", "))
	}

	for _, p := range s.Params {
		if len(p.Enum) == 0 || !present(args, p.Name) {
			continue
		}
		v, err := args.String(p.Name)
		if err != nil {
			return err
		}
		if !contains(p.Enum, v) {
			return contractx.Validation("Invalid value for %s: must be one of %s", p.Name, strings.Join(p.Enum, ", "))
		}
	}

	if len(s.AnyOf) == 0 {
		return nil
	}
	for _, group := range s.AnyOf {
		satisfied := true
		for _, name := range group {
			if !present(args, name) {
				satisfied = false
				break
			}
		}
		if satisfied {
			return nil
		}
	}
	if s.AnyOfMessage != "" {
		return contractx.Validation("%s", s.AnyOfMessage)
	}
	return contractx.Validation("At least one of these parameters is required: %s", strings.Join(s.anyOfNames(), ", "))
}

func (s Spec) anyOfNames() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, group := range s.AnyOf {
		for _, name := range group {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// present treats nil and blank strings as absent.
func present(args Args, name string) bool {
	if !args.has(name) {
		return false
	}
	if s, ok := args[name].(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
