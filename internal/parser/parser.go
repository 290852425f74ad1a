// Package parser extracts tag suggestions from text documents: YAML
// frontmatter "tags"/"keywords" plus inline #hashtags outside code blocks.
package parser

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var hashtagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// frontmatterKeys are read in order; earlier keys win on duplicates.
var frontmatterKeys = []string{"tags", "keywords", "categories"}

// Result holds the output of parsing a text document.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Tags        []string
}

// Parse splits off frontmatter and collects tags. Malformed frontmatter is
// not an error: the whole input is then treated as body.
func Parse(data []byte) (*Result, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	fm, body := splitFrontmatter(data)

	var tags tagSet
	for _, key := range frontmatterKeys {
		tags.addValue(fm[key])
	}
	if err := scanHashtags(body, &tags); err != nil {
		return nil, err
	}
	return &Result{Frontmatter: fm, Body: body, Tags: tags.list}, nil
}

func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n")
	if !bytes.HasPrefix(trimmed, []byte(delim+"\n")) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	end := bytes.Index(rest, []byte("\n"+delim))
	if end < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[end+1+len(delim):]), "\n")
	return fm, body
}

// scanHashtags adds #tags found line by line, skipping fenced code.
func scanHashtags(body string, tags *tagSet) error {
	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	fenced := false
	for sc.Scan() {
		line := sc.Text()
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}
		for _, m := range hashtagRe.FindAllStringSubmatch(line, -1) {
			tags.add(m[1])
		}
	}
	return sc.Err()
}

// tagSet keeps lower-cased tags in first-seen order.
type tagSet struct {
	seen map[string]bool
	list []string
}

func (s *tagSet) add(tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.TrimPrefix(tag, "#")
	if tag == "" || s.seen[tag] {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	s.seen[tag] = true
	s.list = append(s.list, tag)
}

// addValue accepts a YAML list or a comma-separated string.
func (s *tagSet) addValue(v any) {
	switch v := v.(type) {
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok {
				s.add(str)
			}
		}
	case string:
		for _, str := range strings.Split(v, ",") {
			s.add(str)
		}
	}
}
