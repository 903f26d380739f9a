// Package countries provides the country list offered in address forms.
package countries

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var raw []byte

// Country is an ISO 3166-1 alpha-2 code with its English name.
type Country struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

var (
	loadOnce sync.Once
	list     []Country
	byCode   map[string]Country
	loadErr  error
)

func load() {
	var cs []Country
	if err := yaml.Unmarshal(raw, &cs); err != nil {
		loadErr = fmt.Errorf("countries: parse embedded list: %w", err)
		return
	}
	idx := make(map[string]Country, len(cs))
	for _, c := range cs {
		if len(c.Code) != 2 || c.Name == "" {
			loadErr = fmt.Errorf("countries: invalid entry %+v", c)
			return
		}
		idx[c.Code] = c
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
	list, byCode = cs, idx
}

// Load parses the embedded list. Startup calls it so a broken list fails
// fast; later calls are free.
func Load() error {
	loadOnce.Do(load)
	return loadErr
}

// All returns the countries sorted by name.
func All() []Country {
	if Load() != nil {
		return nil
	}
	return list
}

// Valid reports whether code is a listed country code.
func Valid(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Lookup returns the country with code (case-insensitive).
func Lookup(code string) (Country, bool) {
	if Load() != nil {
		return Country{}, false
	}
	c, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Name returns the country name for code, or code itself when unknown.
func Name(code string) string {
	if c, ok := Lookup(code); ok {
		return c.Name
	}
	return code
}
