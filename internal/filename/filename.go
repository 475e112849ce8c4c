// Package filename extracts valuation identity fields from document names
// such as "10216 - HFI - Plot no.316 Gruham Exotica - Karmala - Laljibhai Gupta - [bL].docx".
package filename

import (
	"regexp"
	"strings"
)

const separator = " - "

var bankCodePattern = regexp.MustCompile(`\[([^\]]+)\]`)

// Identity is the set of fields encoded positionally in a document name.
type Identity struct {
	FileNumber   string `json:"fileNumber"`
	PropertyType string `json:"propertyType"`
	Location     string `json:"location"`
	CustomerName string `json:"customerName"`
	BankCode     string `json:"bankCode"`
}

// Parse never fails: missing segments come back as empty strings.
// Segment 2 (the property description) is not part of the identity.
func Parse(name string) Identity {
	parts := strings.Split(name, separator)

	return Identity{
		FileNumber:   segment(parts, 0),
		PropertyType: segment(parts, 1),
		Location:     segment(parts, 3),
		CustomerName: segment(parts, 4),
		BankCode:     BankCode(name),
	}
}

// BankCode returns the contents of the first [bracketed] group in name.
func BankCode(name string) string {
	m := bankCodePattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

func segment(parts []string, i int) string {
	if i >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[i])
}

// Build produces the display name used when a document is saved. Empty
// location and customer segments are dropped, so the result is not
// positional and should not be fed back into Parse.
func Build(fileNumber, propertyType, location, customerName, bankCode string) string {
	parts := []string{fileNumber, propertyType}
	if location != "" {
		parts = append(parts, location)
	}
	if customerName != "" {
		parts = append(parts, customerName)
	}
	return strings.Join(parts, separator) + separator + "[" + bankCode + "].docx"
}

// Reconstruct renders id back into the positional layout Parse reads, with
// an empty description segment.
func Reconstruct(id Identity) string {
	parts := []string{id.FileNumber, id.PropertyType, "", id.Location, id.CustomerName}
	return strings.Join(parts, separator) + separator + "[" + id.BankCode + "].docx"
}
