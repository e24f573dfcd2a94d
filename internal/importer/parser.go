// Package importer turns uploaded recipe photos into draft recipes. The
// extracted text is split into fields with keyword and regex heuristics
// that operators can tune at runtime through the parser YAML config.
package importer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/platebook/platebook/internal/config"
)

// ParsedRecipe is the best-effort structured form of an OCR extraction.
// Every field may be empty; the draft is meant to be reviewed by hand.
type ParsedRecipe struct {
	Title        string
	Ingredients  []string
	Instructions []string
	CookTime     string
	Servings     *int
}

type Parser struct {
	holder *config.ParserConfigHolder
}

func NewParser(holder *config.ParserConfigHolder) *Parser {
	return &Parser{holder: holder}
}

// Parse splits raw OCR text into recipe fields. The first non-empty line
// becomes the title. The ingredient section runs from the first line
// mentioning an ingredient keyword up to the instruction heading; the
// instruction section runs from its heading to the end of the text.
func (p *Parser) Parse(raw string) ParsedRecipe {
	cfg := p.holder.Get()

	lines := splitLines(raw)
	parsed := ParsedRecipe{}
	if len(lines) == 0 {
		return parsed
	}

	parsed.Title = lines[0]

	ingredientsIdx := findKeywordLine(lines, cfg.IngredientKeywords)
	instructionsIdx := findKeywordLine(lines, cfg.InstructionKeywords)

	if ingredientsIdx != -1 {
		end := len(lines)
		if instructionsIdx > ingredientsIdx {
			end = instructionsIdx
		}
		for _, line := range lines[ingredientsIdx+1 : end] {
			parsed.Ingredients = append(parsed.Ingredients, cleanListItem(line))
		}
	}

	if instructionsIdx != -1 {
		for _, line := range lines[instructionsIdx+1:] {
			parsed.Instructions = append(parsed.Instructions, cleanStep(line))
		}
	}

	if re, err := regexp.Compile("(?i)" + cfg.TimePattern); err == nil {
		if m := re.FindString(raw); m != "" {
			parsed.CookTime = strings.TrimSpace(m)
		}
	}

	if re, err := regexp.Compile("(?i)" + cfg.ServingsPattern); err == nil {
		if m := re.FindStringSubmatch(raw); m != nil {
			for _, group := range m[1:] {
				if group == "" {
					continue
				}
				if n, err := strconv.Atoi(group); err == nil {
					parsed.Servings = &n
					break
				}
			}
		}
	}

	return parsed
}

func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}

// findKeywordLine returns the index of the first line mentioning any of
// the keywords, or -1.
func findKeywordLine(lines []string, keywords []string) int {
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, keyword := range keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				return i
			}
		}
	}
	return -1
}

func cleanListItem(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "-*• \t"))
}

var stepPrefix = regexp.MustCompile(`^\d+[.)]\s*`)

func cleanStep(line string) string {
	return strings.TrimSpace(stepPrefix.ReplaceAllString(line, ""))
}
