// Package prompts holds the system prompts the bot can run a thread with.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ID names a system prompt.
type ID string

const (
	Default                    ID = "default"
	NihongoTranslate           ID = "nihongo-translate"
	NihongoExplain             ID = "nihongo-explain"
	NihongoSceneMockCafe       ID = "nihongo-scene-mock-cafe"
	NihongoSceneMockRestaurant ID = "nihongo-scene-mock-restaurant"
	NihongoSceneMockClothes    ID = "nihongo-scene-mock-clothes-shop"
	NihongoSceneMockStreet     ID = "nihongo-scene-mock-street"
	NihongoSceneMockSmallTalk  ID = "nihongo-scene-mock-small-talk"
)

//go:embed prompts.yaml
var catalogData []byte

type catalogFile struct {
	Fragments map[string]string   `yaml:"fragments"`
	Prompts   map[string][]string `yaml:"prompts"`
}

// Catalog resolves prompt ids to system prompt text.
type Catalog struct {
	prompts map[ID]string
}

// Load parses the embedded prompt catalogue.
func Load() (*Catalog, error) {
	return parse(catalogData)
}

func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	prompts := make(map[ID]string, len(file.Prompts))
	for id, parts := range file.Prompts {
		texts := make([]string, 0, len(parts))
		for _, part := range parts {
			text, ok := file.Fragments[part]
			if !ok {
				return nil, fmt.Errorf("prompt %q: unknown fragment %q", id, part)
			}
			texts = append(texts, text)
		}
		prompts[ID(id)] = strings.Join(texts, "\n")
	}
	if _, ok := prompts[Default]; !ok {
		return nil, fmt.Errorf("prompt %q is missing", Default)
	}
	return &Catalog{prompts: prompts}, nil
}

// Normalize maps unknown ids to Default.
func (c *Catalog) Normalize(id ID) ID {
	if _, ok := c.prompts[id]; ok {
		return id
	}
	return Default
}

// System returns the system prompt for id, falling back to Default.
func (c *Catalog) System(id ID) string {
	return c.prompts[c.Normalize(id)]
}
