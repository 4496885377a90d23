package sigma

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Logsource identifies the event source a rule applies to. The mapping
// pipeline uses it to pick field mapping groups.
type Logsource struct {
	Product  string `yaml:"product"`
	Category string `yaml:"category"`
	Service  string `yaml:"service"`
}

// Detection holds the raw selection blocks plus the condition string that
// combines them. Selections stay as decoded YAML until tree construction.
type Detection struct {
	Condition  string
	Selections map[string]any
}

// Rule is one Sigma rule document.
type Rule struct {
	Title       string
	ID          string
	Status      string
	Description string
	Level       string
	Author      string
	Logsource   Logsource
	Detection   Detection
}

type rawRule struct {
	Title       string         `yaml:"title"`
	ID          string         `yaml:"id"`
	Status      string         `yaml:"status"`
	Description string         `yaml:"description"`
	Level       string         `yaml:"level"`
	Author      string         `yaml:"author"`
	Logsource   Logsource      `yaml:"logsource"`
	Detection   map[string]any `yaml:"detection"`
}

// LoadRule decodes a single rule document.
func LoadRule(b []byte) (Rule, error) {
	var rr rawRule
	if err := yaml.Unmarshal(b, &rr); err != nil {
		return Rule{}, fmt.Errorf("yaml: %w", err)
	}
	return fromRaw(rr)
}

// LoadRules decodes every rule document in a possibly multi-document stream.
func LoadRules(b []byte) ([]Rule, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	var out []Rule
	for {
		var rr rawRule
		if err := dec.Decode(&rr); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("yaml: %w", err)
		}
		if rr.Detection == nil && rr.Title == "" {
			continue
		}
		r, err := fromRaw(rr)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, errors.New("no rule documents found")
	}
	return out, nil
}

func fromRaw(rr rawRule) (Rule, error) {
	if rr.Detection == nil {
		return Rule{}, errors.New("missing detection block")
	}
	cond, _ := rr.Detection["condition"].(string)
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return Rule{}, errors.New("missing or invalid detection.condition")
	}
	selections := make(map[string]any, len(rr.Detection)-1)
	for name, v := range rr.Detection {
		if name == "condition" {
			continue
		}
		selections[name] = v
	}
	if len(selections) == 0 {
		return Rule{}, errors.New("detection has no selections")
	}
	id := strings.TrimSpace(rr.ID)
	if id == "" {
		id = rr.Title
	}
	return Rule{
		Title:       rr.Title,
		ID:          id,
		Status:      rr.Status,
		Description: rr.Description,
		Level:       rr.Level,
		Author:      rr.Author,
		Logsource:   rr.Logsource,
		Detection:   Detection{Condition: cond, Selections: selections},
	}, nil
}
