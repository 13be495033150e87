// Package tools declares the tools offered to the model and executes the calls
// it makes.
package tools

import (
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"askflow/backend/internal/llm"
	"askflow/backend/internal/model"
)

// Tool names as seen by the model.
const (
	WebSearch     = "web_search"
	GenerateImage = "generate_image"
)

// SideEffect classifies what invoking a tool does besides returning a result.
type SideEffect string

const (
	SideEffectReadOnly      SideEffect = "pure-readonly"
	SideEffectProducesMedia SideEffect = "produces-media"
)

// Image generation parameter domains.
var (
	ImageSizes     = []string{"1024x1024", "1024x1536", "1536x1024"}
	ImageQualities = []string{"low", "medium", "high", "auto"}
)

const (
	DefaultImageSize    = "1024x1024"
	DefaultImageQuality = "auto"
)

// Descriptor describes one callable tool. Parameters is a JSON schema shown to
// the model; it is not used for validation.
type Descriptor struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	SideEffect  SideEffect
}

var webSearchTool = Descriptor{
	Name:        WebSearch,
	Description: "Search the web for current information. Use it for recent events, prices, weather, scores, or anything that may have changed after your training data.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query"}
		},
		"required": ["query"]
	}`),
	SideEffect: SideEffectReadOnly,
}

var generateImageTool = Descriptor{
	Name:        GenerateImage,
	Description: "Generate an image from a detailed text description. The image is shown to the user directly; do not repeat or link it in your answer.",
	Parameters: mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt":  map[string]any{"type": "string", "description": "Detailed description of the image"},
			"size":    map[string]any{"type": "string", "enum": ImageSizes, "default": DefaultImageSize},
			"quality": map[string]any{"type": "string", "enum": ImageQualities, "default": DefaultImageQuality},
		},
		"required": []string{"prompt"},
	}),
	SideEffect: SideEffectProducesMedia,
}

func mustSchema(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

var (
	searchIntent = regexp.MustCompile(`(?i)\b(search|look\s*up|google|find\s+out|browse|latest|news|headlines?|breaking|today|tonight|tomorrow|yesterday|this\s+(week|month|weekend)|weather|forecast|temperature|rain|stocks?|share\s+price|market|nasdaq|dow\s+jones|bitcoin|crypto|exchange\s+rate|inflation|scores?|who\s+won|standings|fixtures?|playoffs?|near\s+me|nearby|directions\s+to|where\s+is|open\s+now|prices?|how\s+much\s+(is|does|are)|cost\s+of|currently|right\s+now|recent(ly)?|released?|election)\b`)
	imageVerb    = regexp.MustCompile(`(?i)\b(draw|generate|create|make|render|design|paint|sketch|illustrate|produce|imagine)\b`)
	imageNoun    = regexp.MustCompile(`(?i)\b(images?|pictures?|photos?|logos?|icons?|illustrations?|drawings?|paintings?|sketch(es)?|portraits?|wallpapers?|posters?|artworks?|banners?|avatars?|stickers?|renders?)\b`)
	yearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// Registry selects the tools offered for an exchange.
type Registry struct {
	now func() time.Time
}

func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{now: now}
}

// ToolsFor returns the tools to offer, in a fixed order. An empty result means
// the model call is made without tools. The result depends only on its inputs
// and the current year of the registry clock, so calls within the same year
// agree.
func (r *Registry) ToolsFor(mode model.Mode, prompt string) []Descriptor {
	var out []Descriptor
	switch mode {
	case model.ModeThink, model.ModeResearch:
		out = append(out, webSearchTool)
	default:
		if r.NeedsSearch(prompt) {
			out = append(out, webSearchTool)
		}
	}
	if WantsImage(prompt) {
		out = append(out, generateImageTool)
	}
	return out
}

// Lookup finds a descriptor by name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	switch name {
	case WebSearch:
		return webSearchTool, true
	case GenerateImage:
		return generateImageTool, true
	}
	return Descriptor{}, false
}

// NeedsSearch is the quick-mode heuristic: explicit search wording or a
// reference to the current or an adjacent year.
func (r *Registry) NeedsSearch(prompt string) bool {
	if searchIntent.MatchString(prompt) {
		return true
	}
	year := r.now().Year()
	for _, m := range yearPattern.FindAllString(prompt, -1) {
		y, err := strconv.Atoi(m)
		if err == nil && y >= year-1 && y <= year+1 {
			return true
		}
	}
	return false
}

// WantsImage reports whether the prompt asks for an image to be created.
func WantsImage(prompt string) bool {
	return imageVerb.MatchString(prompt) && imageNoun.MatchString(prompt)
}

// AsLLMTools converts descriptors to the backend representation.
func AsLLMTools(descriptors []Descriptor) []llm.Tool {
	if len(descriptors) == 0 {
		return nil
	}
	out := make([]llm.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, llm.Tool{Name: d.Name, Description: d.Description, Parameters: d.Parameters})
	}
	return out
}
