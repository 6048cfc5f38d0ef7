package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"halo-cli/internal/model"
	"halo-cli/internal/store"

	"gopkg.in/yaml.v3"
)

const (
	VariantSix = "six"
	VariantTen = "ten"
)

var sixDefaults = []model.Default{
	{Name: "Customers & Community", Placeholder: "i.e., clarity on ideal customer profiles and verticals"},
	{Name: "Products & Services", Placeholder: "i.e., breadth/depth of product, how well it meets customer needs"},
	{Name: "Sales & Growth", Placeholder: "i.e., channels, partner ecosystem, marketing, pricing, consistency"},
	{Name: "People & Culture", Placeholder: "i.e., org structure, hiring pipeline, culture for scale"},
	{Name: "Money & Resources", Placeholder: "i.e., financial stability, access to capital, reinvestment for growth"},
	{Name: "Systems & Compliance", Placeholder: "i.e., processes, technology, and legal/industry standards"},
}

var tenDefaults = append(append([]model.Default(nil), sixDefaults...),
	model.Default{Name: "Leadership & Vision", Placeholder: "i.e., direction, decision making, succession"},
	model.Default{Name: "Operations & Delivery", Placeholder: "i.e., fulfilment, quality, throughput"},
	model.Default{Name: "Brand & Marketing", Placeholder: "i.e., positioning, awareness, messaging"},
	model.Default{Name: "Partners & Alliances", Placeholder: "i.e., strategic partners, referral networks"},
)

// Variants lists the built-in default sets.
func Variants() []string { return []string{VariantSix, VariantTen} }

// Defaults returns a copy of the built-in default set for variant ("" means six).
func Defaults(variant string) ([]model.Default, error) {
	switch strings.ToLower(strings.TrimSpace(variant)) {
	case "", VariantSix, "6":
		return append([]model.Default(nil), sixDefaults...), nil
	case VariantTen, "10":
		return append([]model.Default(nil), tenDefaults...), nil
	default:
		return nil, fmt.Errorf("unknown variant: %s (expected %s)", variant, strings.Join(Variants(), "|"))
	}
}

// defaultsFile accepts either a bare list or a document with a "defaults" key.
type defaultsFile struct {
	Defaults []model.Default `json:"defaults" yaml:"defaults"`
}

// LoadDefaultsFile reads a default set from a YAML (.yaml/.yml) or JSON file.
func LoadDefaultsFile(path string) ([]model.Default, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defs, err := parseDefaults(b, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

func parseDefaults(b []byte, ext string) ([]model.Default, error) {
	var list []model.Default
	switch ext {
	case ".json":
		if err := json.Unmarshal(b, &list); err != nil {
			var doc defaultsFile
			if derr := json.Unmarshal(b, &doc); derr != nil {
				return nil, err
			}
			list = doc.Defaults
		}
	default:
		if err := yaml.Unmarshal(b, &list); err != nil {
			var doc defaultsFile
			if derr := yaml.Unmarshal(b, &doc); derr != nil {
				return nil, err
			}
			list = doc.Defaults
		}
	}
	return validateDefaults(list)
}

func validateDefaults(list []model.Default) ([]model.Default, error) {
	if len(list) > store.MaxRecords {
		return nil, fmt.Errorf("too many defaults: %d (max %d)", len(list), store.MaxRecords)
	}
	out := make([]model.Default, 0, len(list))
	for i, d := range list {
		d.Name = strings.TrimSpace(d.Name)
		d.Placeholder = strings.TrimSpace(d.Placeholder)
		if d.Name == "" {
			return nil, errors.New("default " + model.PositionalName(i) + ": missing name")
		}
		out = append(out, d)
	}
	return out, nil
}

// Options selects the default set for a widget.
type Options struct {
	Variant      string
	DefaultsPath string
}

// Resolve returns the default set: the file when DefaultsPath is set, else the variant.
func (o Options) Resolve() ([]model.Default, error) {
	if p := strings.TrimSpace(o.DefaultsPath); p != "" {
		return LoadDefaultsFile(p)
	}
	return Defaults(o.Variant)
}
