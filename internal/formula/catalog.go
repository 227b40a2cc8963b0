package formula

import (
	"context"
	"fmt"
	"sort"

	"github.com/tjfontaine/promptpack/internal/api/openai"
	"github.com/tjfontaine/promptpack/internal/codec"
	"github.com/tjfontaine/promptpack/internal/router"
	"github.com/tjfontaine/promptpack/internal/tokens"
)

// Model autocomplete suggestions. Completion formulas accept both families;
// the chat formula is restricted to chat models.
var (
	completionModels = []string{
		"gpt-3.5-turbo",
		"gpt-3.5-turbo-16k",
		"gpt-4",
		"gpt-4-32k",
		"text-davinci-003",
		"text-davinci-002",
		"text-curie-001",
		"text-babbage-001",
		"text-ada-001",
	}
	chatModels = []string{
		"gpt-3.5-turbo",
		"gpt-3.5-turbo-16k",
		"gpt-4",
		"gpt-4-32k",
	}
)

// Defaults are the fallback generation settings injected as parameter
// defaults wherever a formula exposes them.
type Defaults struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Catalog is the fixed set of formulas the pack exposes. It is stateless
// across invocations; the only shared data is the immutable style table.
type Catalog struct {
	router   *router.Router
	client   *openai.Client
	budget   *tokens.Counter
	defaults Defaults
	formulas map[string]*Formula
}

// New builds the catalog. Zero-valued defaults fall back to the pack's
// stock settings.
func New(client *openai.Client, budget *tokens.Counter, defaults Defaults) *Catalog {
	if defaults.Model == "" {
		defaults.Model = "gpt-3.5-turbo"
	}
	if defaults.MaxTokens == 0 {
		defaults.MaxTokens = 512
	}
	if defaults.Temperature == 0 {
		defaults.Temperature = 1.0
	}

	c := &Catalog{
		router:   router.New(client),
		client:   client,
		budget:   budget,
		defaults: defaults,
		formulas: make(map[string]*Formula),
	}

	for _, f := range []*Formula{
		c.prompt(),
		c.promptAction(),
		c.chat(),
		c.promptExamples(),
		c.questionAnswer(),
		c.summarize(),
		c.keywords(),
		c.moodToColor(),
		c.sentiment(),
		c.createImage(),
	} {
		c.register(f)
	}

	return c
}

func (c *Catalog) register(f *Formula) {
	if f.Name == "" {
		panic("formula name cannot be empty")
	}
	if f.Execute == nil {
		panic(fmt.Sprintf("formula %q must have an Execute function", f.Name))
	}
	if _, exists := c.formulas[f.Name]; exists {
		panic(fmt.Sprintf("formula %q already registered", f.Name))
	}
	c.formulas[f.Name] = f
}

// Get returns the formula with the given name, if registered.
func (c *Catalog) Get(name string) (*Formula, bool) {
	f, ok := c.formulas[name]
	return f, ok
}

// List returns all formulas sorted by name.
func (c *Catalog) List() []*Formula {
	out := make([]*Formula, 0, len(c.formulas))
	for _, f := range c.formulas {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke is the host-facing entry point: it resolves raw parameters,
// executes the formula, and runs failures through the error translator
// before they reach the caller.
func (c *Catalog) Invoke(ctx context.Context, name string, raw map[string]any) (any, error) {
	f, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown formula: %s", name)
	}

	inv, err := Resolve(f, raw)
	if err != nil {
		return nil, codec.Translate(err)
	}

	result, err := f.Execute(ctx, inv)
	if err != nil {
		return nil, codec.Translate(err)
	}
	return result, nil
}

// runWith fills unset request fields from the invocation's generation
// parameters (falling back to catalog defaults), enforces the token
// budget, and dispatches through the router.
func (c *Catalog) runWith(ctx context.Context, inv *Invocation, req router.Request) (string, error) {
	if req.Model == "" {
		if m := inv.String("model"); m != "" {
			req.Model = m
		} else {
			req.Model = c.defaults.Model
		}
	}
	if req.MaxTokens == 0 {
		if n := inv.Int("maxTokens"); n > 0 {
			req.MaxTokens = n
		} else {
			req.MaxTokens = c.defaults.MaxTokens
		}
	}
	if req.Temperature == nil {
		if v, ok := inv.Lookup("temperature"); ok {
			t := v.(float64)
			req.Temperature = &t
		} else {
			t := c.defaults.Temperature
			req.Temperature = &t
		}
	}
	if req.Stop == nil {
		req.Stop = inv.StringSlice("stop")
	}

	budgetPrompt := req.Prompt
	if req.SystemPrompt != "" {
		budgetPrompt = req.SystemPrompt + "\n" + req.Prompt
	}
	if err := c.budget.CheckBudget(req.Model, budgetPrompt, req.MaxTokens); err != nil {
		return "", err
	}

	return c.router.Complete(ctx, req)
}

// Shared generation parameters.

func (c *Catalog) modelParam() Param {
	return Param{
		Name:         "model",
		Type:         ParamString,
		Description:  "Model to generate with.",
		Default:      c.defaults.Model,
		Autocomplete: completionModels,
	}
}

func (c *Catalog) maxTokensParam() Param {
	return Param{
		Name:        "maxTokens",
		Type:        ParamNumber,
		Description: "Maximum number of tokens to generate.",
		Default:     float64(c.defaults.MaxTokens),
	}
}

func (c *Catalog) temperatureParam() Param {
	return Param{
		Name:        "temperature",
		Type:        ParamNumber,
		Description: "Sampling temperature between 0 and 2. Higher values make the output more random.",
		Default:     c.defaults.Temperature,
	}
}

func stopParam() Param {
	return Param{
		Name:        "stop",
		Type:        ParamStringArray,
		Description: "Sequences where generation stops.",
		Optional:    true,
	}
}
