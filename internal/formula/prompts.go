package formula

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tjfontaine/promptpack/internal/domain"
	"github.com/tjfontaine/promptpack/internal/router"
)

const questionAnswerTemplate = `I answer questions truthfully. When a question is nonsense, trickery, or has no clear answer, I reply "Unknown".

Q: What is human life expectancy in the United States?
A: Human life expectancy in the United States is 78 years.

Q: Who was president of the United States in 1955?
A: Dwight D. Eisenhower was president of the United States in 1955.

Q: How many squigs are in a bonk?
A: Unknown

Q: %s
A:`

const textCacheTTL = time.Hour

func (c *Catalog) prompt() *Formula {
	return &Formula{
		Name:        "Prompt",
		Description: "Complete a free-form prompt.",
		Params: []Param{
			{Name: "prompt", Type: ParamString, Description: "Prompt to complete."},
			c.modelParam(),
			c.maxTokensParam(),
			c.temperatureParam(),
			stopParam(),
		},
		CacheTTL: textCacheTTL,
		Execute: func(ctx context.Context, inv *Invocation) (any, error) {
			prompt := inv.String("prompt")
			if strings.TrimSpace(prompt) == "" {
				return "", nil
			}
			return c.runWith(ctx, inv, router.Request{Prompt: prompt})
		},
	}
}

func (c *Catalog) promptAction() *Formula {
	f := c.prompt()
	f.Name = "PromptAction"
	f.Description = "Complete a free-form prompt as a document action, regenerating on demand."
	f.IsAction = true
	f.CacheTTL = 0
	return f
}

func (c *Catalog) chat() *Formula {
	// The chat default must itself be a chat model even when the catalog
	// default is a legacy one.
	defaultModel := c.defaults.Model
	if !router.IsChatModel(defaultModel) {
		defaultModel = "gpt-3.5-turbo"
	}

	return &Formula{
		Name:        "Chat",
		Description: "Send a message to a chat model, optionally under a system prompt.",
		Params: []Param{
			{Name: "prompt", Type: ParamString, Description: "User message."},
			{Name: "systemPrompt", Type: ParamString, Description: "Instructions the model follows for the whole exchange.", Optional: true},
			{Name: "model", Type: ParamString, Description: "Chat model to generate with.", Default: defaultModel, Autocomplete: chatModels},
			c.maxTokensParam(),
			c.temperatureParam(),
		},
		CacheTTL: textCacheTTL,
		Execute: func(ctx context.Context, inv *Invocation) (any, error) {
			prompt := inv.String("prompt")
			if strings.TrimSpace(prompt) == "" {
				return "", nil
			}
			model := inv.String("model")
			if !router.IsChatModel(model) {
				return nil, domain.ErrValidation(
					fmt.Sprintf("%q is not a chat model; use a gpt-3.5-turbo or gpt-4 variant", model),
				).WithParam("model")
			}
			return c.runWith(ctx, inv, router.Request{
				Prompt:       prompt,
				SystemPrompt: inv.String("systemPrompt"),
			})
		},
	}
}

func (c *Catalog) promptExamples() *Formula {
	return &Formula{
		Name:        "PromptExamples",
		Description: "Complete a prompt after few-shot example prompt/response pairs.",
		Params: []Param{
			{Name: "prompt", Type: ParamString, Description: "Prompt to complete."},
			{Name: "trainingPrompts", Type: ParamStringArray, Description: "Example prompts, paired with trainingResponses."},
			{Name: "trainingResponses", Type: ParamStringArray, Description: "Example responses, paired with trainingPrompts."},
			c.modelParam(),
			c.maxTokensParam(),
			c.temperatureParam(),
		},
		CacheTTL: textCacheTTL,
		Execute: func(ctx context.Context, inv *Invocation) (any, error) {
			prompt := inv.String("prompt")
			if strings.TrimSpace(prompt) == "" {
				return "", nil
			}

			prompts := inv.StringSlice("trainingPrompts")
			responses := inv.StringSlice("trainingResponses")
			if len(prompts) != len(responses) {
				return nil, domain.ErrValidation(fmt.Sprintf(
					"trainingPrompts and trainingResponses must be the same length (got %d and %d)",
					len(prompts), len(responses)))
			}

			var b strings.Builder
			for i := range prompts {
				b.WriteString(prompts[i])
				b.WriteString("\n")
				b.WriteString(responses[i])
				b.WriteString("\n\n")
			}
			b.WriteString(prompt)

			return c.runWith(ctx, inv, router.Request{Prompt: b.String()})
		},
	}
}

func (c *Catalog) questionAnswer() *Formula {
	return &Formula{
		Name:        "QuestionAnswer",
		Description: "Answer a question, replying Unknown when there is no clear answer.",
		Params: []Param{
			{Name: "question", Type: ParamString, Description: "Question to answer."},
		},
		CacheTTL: textCacheTTL,
		Execute: func(ctx context.Context, inv *Invocation) (any, error) {
			question := inv.String("question")
			if strings.TrimSpace(question) == "" {
				return "", nil
			}
			return c.runWith(ctx, inv, router.Request{
				Prompt: fmt.Sprintf(questionAnswerTemplate, question),
				Stop:   []string{"\nQ:"},
			})
		},
	}
}

func (c *Catalog) summarize() *Formula {
	return &Formula{
		Name:        "Summarize",
		Description: "Summarize a passage of text.",
		Params: []Param{
			{Name: "text", Type: ParamString, Description: "Text to summarize."},
		},
		CacheTTL: textCacheTTL,
		Execute: func(ctx context.Context, inv *Invocation) (any, error) {
			text := inv.String("text")
			if strings.TrimSpace(text) == "" {
				return "", nil
			}
			return c.runWith(ctx, inv, router.Request{Prompt: text + "\n\nTl;dr:"})
		},
	}
}

func (c *Catalog) keywords() *Formula {
	return &Formula{
		Name:        "Keywords",
		Description: "Extract keywords from a passage of text.",
		Params: []Param{
			{Name: "text", Type: ParamString, Description: "Text to extract keywords from."},
		},
		CacheTTL: textCacheTTL,
		Execute: func(ctx context.Context, inv *Invocation) (any, error) {
			text := inv.String("text")
			if strings.TrimSpace(text) == "" {
				return "", nil
			}
			return c.runWith(ctx, inv, router.Request{
				Prompt: "Extract keywords from this text:\n\n" + text,
			})
		},
	}
}

func (c *Catalog) moodToColor() *Formula {
	return &Formula{
		Name:        "MoodToColor",
		Description: "Turn a mood description into a CSS hex color.",
		Params: []Param{
			{Name: "mood", Type: ParamString, Description: "Mood to translate into a color."},
		},
		CacheTTL: textCacheTTL,
		Execute: func(ctx context.Context, inv *Invocation) (any, error) {
			mood := inv.String("mood")
			if strings.TrimSpace(mood) == "" {
				return "", nil
			}
			out, err := c.runWith(ctx, inv, router.Request{
				Prompt:    fmt.Sprintf("The CSS code for a color like %s:\n\nbackground-color: #", mood),
				MaxTokens: 6,
				Stop:      []string{";"},
			})
			if err != nil {
				return nil, err
			}
			out = strings.TrimSpace(strings.TrimSuffix(out, ";"))
			if out == "" {
				return "", nil
			}
			return "#" + out, nil
		},
	}
}

func (c *Catalog) sentiment() *Formula {
	return &Formula{
		Name:        "Sentiment",
		Description: "Classify the sentiment of a passage as positive, neutral, or negative.",
		Params: []Param{
			{Name: "text", Type: ParamString, Description: "Text to classify."},
		},
		CacheTTL: textCacheTTL,
		Execute: func(ctx context.Context, inv *Invocation) (any, error) {
			text := inv.String("text")
			if strings.TrimSpace(text) == "" {
				return "", nil
			}
			return c.runWith(ctx, inv, router.Request{
				Prompt: fmt.Sprintf(
					"Decide whether the sentiment of the following text is positive, neutral, or negative.\n\nText: %q\nSentiment:",
					text),
				MaxTokens: 8,
			})
		},
	}
}
