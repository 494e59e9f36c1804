package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Selectors lists, per field, the CSS selectors tried in order against a
// listing card. The first selector that matches an element wins.
type Selectors struct {
	Cards         []string `yaml:"cards"`
	CardsFallback []string `yaml:"cards_fallback"`
	Price         []string `yaml:"price"`
	Title         []string `yaml:"title"`
	Address       []string `yaml:"address"`
	Underground   []string `yaml:"underground"`
	Link          []string `yaml:"link"`
}

// DefaultSelectors returns the selectors matching the current cian.ru markup.
func DefaultSelectors() *Selectors {
	return &Selectors{
		Cards:         []string{`article[data-name="CardComponent"]`},
		CardsFallback: []string{`div[class*="--container--"]`},
		Price: []string{
			`span[data-mark="MainPrice"]`,
			`div[data-testid="price-amount"]`,
			`.price`,
			`span[class*="price"]`,
		},
		Title: []string{
			`span[data-mark="OfferTitle"]`,
			`div[data-testid="title"]`,
			`h1`, `h2`, `h3`,
		},
		Address: []string{
			`div[data-name="Address"]`,
			`div[class*="address"]`,
		},
		Underground: []string{
			`div[data-name="Underground"]`,
			`div[class*="underground"]`,
		},
		Link: []string{`a[href]`},
	}
}

// LoadSelectors returns the defaults overlaid with the lists set in the YAML
// file at path. An empty path returns the defaults unchanged.
func LoadSelectors(path string) (*Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("selectors: read %q: %w", path, err)
	}

	var override Selectors
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("selectors: parse %q: %w", path, err)
	}

	overlay(&sel.Cards, override.Cards)
	overlay(&sel.CardsFallback, override.CardsFallback)
	overlay(&sel.Price, override.Price)
	overlay(&sel.Title, override.Title)
	overlay(&sel.Address, override.Address)
	overlay(&sel.Underground, override.Underground)
	overlay(&sel.Link, override.Link)

	return sel, nil
}

func overlay(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}
