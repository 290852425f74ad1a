// Package ai produces file summaries and tag suggestions with a Gemini model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/starford/fileexpo/internal/apperr"
)

const (
	defaultModel           = "gemini-2.0-flash"
	defaultMaxContentBytes = 8000
	maxSuggestedTags       = 5
)

// Summarizer summarizes a file and suggests tags for it. It satisfies
// tagging.Suggester.
type Summarizer interface {
	Summarize(ctx context.Context, path string) (string, error)
	SuggestTags(ctx context.Context, path string) []string
}

// generateFunc sends one prompt to the model and returns its text reply.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Client is a Summarizer backed by the Gemini API.
type Client struct {
	generate   generateFunc
	model      string
	maxContent int
}

// New creates a Client for model using apiKey. maxContentBytes bounds how
// much of a file is sent with each prompt.
func New(ctx context.Context, apiKey, model string, maxContentBytes int) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: api key: %w", apperr.ErrNotConfigured)
	}
	if model == "" {
		model = defaultModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: create client: %w", err)
	}

	gen := func(ctx context.Context, prompt string) (string, error) {
		resp, err := gc.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.3),
			MaxOutputTokens: 512,
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return newClient(gen, model, maxContentBytes), nil
}

func newClient(gen generateFunc, model string, maxContentBytes int) *Client {
	if maxContentBytes <= 0 {
		maxContentBytes = defaultMaxContentBytes
	}
	return &Client{generate: gen, model: model, maxContent: maxContentBytes}
}

// Name identifies the backing model.
func (c *Client) Name() string {
	return "genai:" + c.model
}

// Summarize asks the model for a short summary of the file at path.
// Directories are rejected with apperr.ErrInvalidName.
func (c *Client) Summarize(ctx context.Context, path string) (string, error) {
	name, snippet, err := c.describe(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Summarize the following file in a few sentences. ")
	b.WriteString("Describe its purpose and main contents.\n\n")
	fmt.Fprintf(&b, "Filename: %s\n", name)
	if snippet != "" {
		fmt.Fprintf(&b, "Content:\n%s\n", snippet)
	} else {
		b.WriteString("Content: (binary or empty, describe from the name only)\n")
	}

	out, err := c.generate(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("ai: summarize %s: %w", path, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("ai: summarize %s: empty response", path)
	}
	return out, nil
}

// SuggestTags asks the model for 3 to 5 tags. Failures yield no tags.
func (c *Client) SuggestTags(ctx context.Context, path string) []string {
	name, snippet, err := c.describe(path)
	if err != nil {
		return nil
	}
	prompt := fmt.Sprintf("Generate 3-5 relevant tags for this file based on its name, extension, "+
		"and content if provided. Return only a comma-separated list of tags, nothing else.\n\n"+
		"Filename: %s\nExtension: %s\nContent snippet: %s",
		name, strings.ToLower(filepath.Ext(name)), snippet)

	out, err := c.generate(ctx, prompt)
	if err != nil {
		return nil
	}
	return ParseTags(out)
}

// describe returns the base name of path and a UTF-8 prefix of its content.
// The snippet is empty for binary files.
func (c *Client) describe(path string) (string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("ai: %s: %w", path, apperr.ErrNotFound)
		}
		return "", "", fmt.Errorf("ai: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("ai: %s is a directory: %w", path, apperr.ErrInvalidName)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("ai: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(c.maxContent)))
	if err != nil {
		return "", "", fmt.Errorf("ai: read %s: %w", path, err)
	}
	return info.Name(), textSnippet(data), nil
}

// textSnippet returns data as a string when it is text, trimming a rune cut
// by the read limit. Binary data yields "".
func textSnippet(data []byte) string {
	for i := 0; i < utf8.UTFMax && len(data) > 0 && !utf8.Valid(data); i++ {
		data = data[:len(data)-1]
	}
	if !utf8.Valid(data) || strings.ContainsRune(string(data), 0) {
		return ""
	}
	return string(data)
}

// ParseTags splits a comma-separated model reply into normalized tags.
func ParseTags(reply string) []string {
	var tags []string
	seen := map[string]bool{}
	for _, part := range strings.Split(reply, ",") {
		tag := strings.ToLower(strings.Trim(strings.TrimSpace(part), "#.\"'`"))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == maxSuggestedTags {
			break
		}
	}
	return tags
}

// Disabled is the Summarizer used when no API key is configured.
type Disabled struct{}

// Summarize always fails with apperr.ErrNotConfigured.
func (Disabled) Summarize(context.Context, string) (string, error) {
	return "", fmt.Errorf("ai: summarize: %w", apperr.ErrNotConfigured)
}

// SuggestTags returns no tags.
func (Disabled) SuggestTags(context.Context, string) []string { return nil }
