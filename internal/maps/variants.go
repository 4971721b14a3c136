package maps

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	separatorPattern  = regexp.MustCompile(`[#\-]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	callePattern      = regexp.MustCompile(`(?i)(?:Calle|Cl|Cale)\s+(\d+[A-Z]*)\s*#\s*(\d+[A-Z]*)`)
	carreraPattern    = regexp.MustCompile(`(?i)(?:Carrera|Cra|Kra|Kr)\s+(\d+[A-Z]*)\s*#\s*(\d+[A-Z]*)`)
)

// QueryVariants returns the free-form queries to try for a Bogota style street
// address, most specific first. "Calle X # Y" and "Carrera X # Y" addresses are
// rewritten as street intersections, which Nominatim resolves far more often
// than the plate number.
func QueryVariants(address, citySuffix string) []string {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil
	}

	withCity := func(q string) string {
		if citySuffix == "" {
			return q
		}
		return q + ", " + citySuffix
	}

	cleaned := separatorPattern.ReplaceAllString(address, " ")
	cleaned = strings.TrimSpace(whitespacePattern.ReplaceAllString(cleaned, " "))

	var head, tail []string
	if m := carreraPattern.FindStringSubmatch(address); m != nil {
		head = append(head, withCity(fmt.Sprintf("Carrera %s Calle %s", m[1], m[2])))
	}
	if m := callePattern.FindStringSubmatch(address); m != nil {
		head = append(head, withCity(fmt.Sprintf("Calle %s Carrera %s", m[1], m[2])))
		tail = append(tail, withCity(fmt.Sprintf("Calle %sB Carrera %s", m[1], m[2])))
	}

	queries := append(head, withCity(cleaned))
	queries = append(queries, withCity(address))
	queries = append(queries, tail...)
	return dedupe(queries)
}

func dedupe(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
