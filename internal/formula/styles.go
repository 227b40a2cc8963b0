package formula

import "sort"

// imageStyles maps human-readable style names to the phrase appended to an
// image prompt. The table is process-wide, read-only, and never
// reinitialized.
var imageStyles = map[string]string{
	"Banksy":        "in the style of Banksy",
	"Basquiat":      "in the style of Basquiat",
	"Dali":          "in the style of Dali",
	"Frida Kahlo":   "in the style of Frida Kahlo",
	"Hokusai":       "in the style of Hokusai",
	"Monet":         "in the style of Monet",
	"Picasso":       "in the style of Picasso",
	"Rembrandt":     "in the style of Rembrandt",
	"Van Gogh":      "in the style of Van Gogh",
	"Warhol":        "in the style of Warhol",
	"Anime":         "in an anime style",
	"Cartoon":       "as a cartoon",
	"Low Poly":      "as low poly art",
	"Oil Painting":  "as an oil painting",
	"Pencil Sketch": "as a pencil sketch",
	"Photorealism":  "as a photorealistic render",
	"Pixel Art":     "as pixel art",
	"Watercolor":    "as a watercolor painting",
}

// StylePhrase looks up the prompt phrase for a style name.
func StylePhrase(name string) (string, bool) {
	phrase, ok := imageStyles[name]
	return phrase, ok
}

// StyleNames returns the style names sorted for autocomplete.
func StyleNames() []string {
	names := make([]string, 0, len(imageStyles))
	for name := range imageStyles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
