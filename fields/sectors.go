package fields

import (
	"fmt"
	"sort"
	"strings"
)

// Sector is a canonical sector with its aliases.
type Sector struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

var sectorTable = []Sector{
	{Name: "Technology", Aliases: []string{"it", "tech", "information technology", "software", "it services"}},
	{Name: "Banking", Aliases: []string{"bank", "banks", "banking stocks", "psu banks", "private banks"}},
	{Name: "Financial Services", Aliases: []string{"finance", "financials", "nbfc", "nbfcs", "insurance", "broking", "fintech"}},
	{Name: "Energy", Aliases: []string{"oil", "gas", "oil and gas", "oil & gas", "petroleum", "coal"}},
	{Name: "Healthcare", Aliases: []string{"pharma", "pharmaceuticals", "health", "hospitals", "healthcare services"}},
	{Name: "FMCG", Aliases: []string{"consumer staples", "fast moving consumer goods", "consumer goods"}},
	{Name: "Metals & Mining", Aliases: []string{"metals", "metal", "mining", "steel", "aluminium"}},
	{Name: "Automobile", Aliases: []string{"auto", "autos", "automobiles", "auto ancillary", "ev"}},
	{Name: "Telecom", Aliases: []string{"telecommunication", "telecommunications", "telco"}},
	{Name: "Utilities", Aliases: []string{"power", "utility", "electricity"}},
	{Name: "Infrastructure", Aliases: []string{"infra", "construction", "capital goods", "engineering"}},
	{Name: "Cement", Aliases: []string{"building materials", "cements"}},
	{Name: "Real Estate", Aliases: []string{"realty", "property", "housing"}},
	{Name: "Consumer Durables", Aliases: []string{"durables", "appliances", "consumer discretionary"}},
	{Name: "Media", Aliases: []string{"entertainment", "media and entertainment"}},
	{Name: "Chemicals", Aliases: []string{"specialty chemicals", "chemical", "agrochemicals"}},
}

var (
	sectorByAlias      map[string]string
	sectorByNormalized map[string]string
)

// minSubstringLen guards the fuzzy containment rule against short words
// such as "it" matching inside unrelated terms.
const minSubstringLen = 4

func buildSectorIndex() error {
	sectorByAlias = make(map[string]string)
	sectorByNormalized = make(map[string]string)
	for _, s := range sectorTable {
		key := Normalize(s.Name)
		if prev, ok := sectorByNormalized[key]; ok && prev != s.Name {
			return fmt.Errorf("fields: sector %q collides with %s", s.Name, prev)
		}
		sectorByNormalized[key] = s.Name
	}
	for _, s := range sectorTable {
		for _, a := range s.Aliases {
			if prev, ok := sectorByAlias[a]; ok && prev != s.Name {
				return fmt.Errorf("fields: sector alias %q shared by %s and %s", a, prev, s.Name)
			}
			sectorByAlias[a] = s.Name
			key := Normalize(a)
			if prev, ok := sectorByNormalized[key]; ok && prev != s.Name {
				return fmt.Errorf("fields: sector alias %q collides with %s", a, prev)
			}
			sectorByNormalized[key] = s.Name
		}
	}
	return nil
}

// ResolveSector maps free text to a canonical sector name. After the exact
// and normalized rules it falls back to substring containment in either
// direction against sector names and their longer aliases.
func ResolveSector(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if name, ok := ExactSector(text); ok {
		return name, true
	}
	if text == "" {
		return "", false
	}

	lower := strings.ToLower(text)
	if len(lower) < minSubstringLen-1 {
		return "", false
	}
	for _, s := range sectorTable {
		if containsEither(strings.ToLower(s.Name), lower) {
			return s.Name, true
		}
	}
	for _, s := range sectorTable {
		for _, a := range s.Aliases {
			if len(a) < minSubstringLen {
				continue
			}
			if containsEither(a, lower) {
				return s.Name, true
			}
		}
	}
	return "", false
}

// ExactSector applies only the exact and normalized rules of ResolveSector.
func ExactSector(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	for _, s := range sectorTable {
		if s.Name == text {
			return s.Name, true
		}
	}
	if name, ok := sectorByAlias[text]; ok {
		return name, true
	}
	if name, ok := sectorByNormalized[Normalize(text)]; ok {
		return name, true
	}
	return "", false
}

func containsEither(a, b string) bool {
	if len(b) >= minSubstringLen-1 && strings.Contains(a, b) {
		return true
	}
	return containsWord(b, a)
}

// containsWord reports whether needle appears in haystack on word boundaries.
func containsWord(haystack, needle string) bool {
	idx := strings.Index(haystack, needle)
	for idx >= 0 {
		before := idx == 0 || haystack[idx-1] == ' '
		end := idx + len(needle)
		after := end == len(haystack) || haystack[end] == ' '
		if before && after {
			return true
		}
		next := strings.Index(haystack[idx+1:], needle)
		if next < 0 {
			break
		}
		idx += next + 1
	}
	return false
}

// Sectors returns the canonical sector names in alphabetical order.
func Sectors() []string {
	out := make([]string, 0, len(sectorTable))
	for _, s := range sectorTable {
		out = append(out, s.Name)
	}
	sort.Strings(out)
	return out
}

// SectorAliases returns the alias list of a canonical sector.
func SectorAliases(name string) []string {
	for _, s := range sectorTable {
		if s.Name == name {
			return append([]string(nil), s.Aliases...)
		}
	}
	return nil
}
