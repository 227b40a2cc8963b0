package formula

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tjfontaine/promptpack/internal/api/openai"
	"github.com/tjfontaine/promptpack/internal/domain"
)

var imageSizes = []string{"256x256", "512x512", "1024x1024"}

// Temporary image URLs expire upstream, so the cache window stays short.
const imageCacheTTL = 5 * time.Minute

func (c *Catalog) createImage() *Formula {
	return &Formula{
		Name:        "CreateImage",
		Description: "Generate an image from a prompt, returned as a data URI or a temporary URL.",
		Params: []Param{
			{Name: "prompt", Type: ParamString, Description: "Description of the image to generate."},
			{Name: "size", Type: ParamString, Description: "Image dimensions.", Default: "512x512", Autocomplete: imageSizes},
			{Name: "style", Type: ParamString, Description: "Named style appended to the prompt.", Optional: true, Autocomplete: StyleNames()},
			{Name: "temporaryUrl", Type: ParamBoolean, Description: "Return a short-lived URL instead of a data URI.", Default: false},
		},
		CacheTTL: imageCacheTTL,
		Execute: func(ctx context.Context, inv *Invocation) (any, error) {
			prompt := inv.String("prompt")
			if strings.TrimSpace(prompt) == "" {
				return "", nil
			}

			if style := inv.String("style"); style != "" {
				phrase, ok := StylePhrase(style)
				if !ok {
					return nil, domain.ErrValidation(
						fmt.Sprintf("unknown style %q; pick one of the suggested names", style),
					).WithParam("style")
				}
				prompt = prompt + ", " + phrase
			}

			format := openai.ImageFormatB64JSON
			if inv.Bool("temporaryUrl") {
				format = openai.ImageFormatURL
			}

			resp, err := c.client.CreateImage(ctx, &openai.ImageRequest{
				Prompt:         prompt,
				N:              1,
				Size:           inv.String("size"),
				ResponseFormat: format,
			})
			if err != nil {
				return nil, err
			}
			if len(resp.Data) == 0 {
				return nil, fmt.Errorf("image response contained no data")
			}

			datum := resp.Data[0]
			if datum.URL != "" {
				return datum.URL, nil
			}
			return "data:image/png;base64," + datum.B64JSON, nil
		},
	}
}
