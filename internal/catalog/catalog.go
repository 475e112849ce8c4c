// Package catalog lists the banks and valuation types an agent can pick.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"SPX-VAL/internal/models"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownBank          = errors.New("unknown bank")
	ErrUnknownValuationType = errors.New("unknown valuation type")
)

var defaultBanks = []models.Bank{
	{Code: "bL", Name: "Bank of Baroda", Color: "#e11d48"},
	{Code: "SH", Name: "State Bank of India", Color: "#2563eb"},
	{Code: "HDFC", Name: "HDFC Bank", Color: "#7c3aed"},
	{Code: "ICICI", Name: "ICICI Bank", Color: "#ea580c"},
}

var defaultValuationTypes = []models.ValuationType{
	{ID: "property", Name: "Property Valuation", Icon: "building", Description: "Flats, Apartments, Houses, Commercial Buildings"},
	{ID: "plot", Name: "Plot Valuation", Icon: "land", Description: "Land, Agricultural Plots, Residential Plots"},
}

type Catalog struct {
	Banks          []models.Bank          `yaml:"banks"`
	ValuationTypes []models.ValuationType `yaml:"valuation_types"`
}

func Default() *Catalog {
	return &Catalog{
		Banks:          append([]models.Bank(nil), defaultBanks...),
		ValuationTypes: append([]models.ValuationType(nil), defaultValuationTypes...),
	}
}

// Load reads a YAML catalog. An empty path or a missing file yields the
// built-in lists; a section left out of the file keeps its default.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	if len(file.Banks) > 0 {
		for _, b := range file.Banks {
			if strings.TrimSpace(b.Code) == "" {
				return nil, fmt.Errorf("catalog %s: bank without code", path)
			}
		}
		c.Banks = file.Banks
	}
	if len(file.ValuationTypes) > 0 {
		c.ValuationTypes = file.ValuationTypes
	}
	return c, nil
}

func (c *Catalog) Bank(code string) (models.Bank, error) {
	for _, b := range c.Banks {
		if b.Code == code {
			return b, nil
		}
	}
	return models.Bank{}, fmt.Errorf("%w: %s", ErrUnknownBank, code)
}

func (c *Catalog) ValuationType(id string) (models.ValuationType, error) {
	for _, v := range c.ValuationTypes {
		if v.ID == id {
			return v, nil
		}
	}
	return models.ValuationType{}, fmt.Errorf("%w: %s", ErrUnknownValuationType, id)
}
