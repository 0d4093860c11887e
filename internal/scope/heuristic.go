package scope

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// HeuristicParser builds a scope document from raw discovery text using
// pattern matching only. It performs no I/O and is fully deterministic,
// so the same input always yields the same document.
type HeuristicParser struct {
	moduleHeading   *regexp.Regexp
	roleKeyword     *regexp.Regexp
	requirementWord *regexp.Regexp
	bulletPrefix    *regexp.Regexp
	parens          *regexp.Regexp
	headingTokens   *regexp.Regexp
}

// NewHeuristicParser creates a parser with its patterns pre-compiled.
func NewHeuristicParser() *HeuristicParser {
	return &HeuristicParser{
		moduleHeading:   regexp.MustCompile(`(?i)^(module|page|area|section)\s*[:\-]\s*(.+)`),
		roleKeyword:     regexp.MustCompile(`(?i)\b(user|customer|admin|manager|operator)\b`),
		requirementWord: regexp.MustCompile(`(?i)\b(should|must|allow|enable)\b`),
		bulletPrefix:    regexp.MustCompile(`^[-*\d.\s]+`),
		parens:          regexp.MustCompile(`[()]`),
		headingTokens:   regexp.MustCompile(`[\s/&,\-]+`),
	}
}

// Parse converts text into a scope document.
func (p *HeuristicParser) Parse(text string) Document {
	lines := nonEmptyLines(text)
	sentences := splitSentences(text)

	modules, features := p.extractModulesAndFeatures(lines)

	return Document{
		ExecutiveSummary:          buildExecutiveSummary(sentences),
		Personas:                  p.extractPersonas(lines, sentences),
		Modules:                   modules,
		Features:                  features,
		FunctionalRequirements:    p.extractFunctionalRequirements(sentences),
		TechnicalRequirements:     p.extractKeywordRequirements(sentences, lines, technicalKeywords, maxTechnicalRequirements),
		NonFunctionalRequirements: p.extractKeywordRequirements(sentences, lines, nonFunctionalKeywords, maxNonFunctionalRequirements),
		OpenQuestions:             extractQuestions(lines),
	}
}

const (
	maxFunctionalRequirements    = 8
	maxTechnicalRequirements     = 5
	maxNonFunctionalRequirements = 5
	maxOpenQuestions             = 5
	maxFeatureNameLength         = 80
)

var (
	technicalKeywords     = []string{"api", "integration", "database", "encryption", "authentication", "infrastructure"}
	nonFunctionalKeywords = []string{"performance", "scalability", "uptime", "latency", "security", "compliance"}
	featureKeywords       = []string{"feature", "module", "workflow", "screen", "page"}
	interactionKeywords   = []string{"allow", "enable", "user", "workflow", "step"}
)

func buildExecutiveSummary(sentences []string) ExecutiveSummary {
	overview := ""
	if len(sentences) > 0 {
		overview = strings.Join(sentences[:min(2, len(sentences))], " ")
	}
	return ExecutiveSummary{
		Overview:  overview,
		KeyPoints: append([]string(nil), sentences[:min(3, len(sentences))]...),
	}
}

func (p *HeuristicParser) extractPersonas(lines, sentences []string) []Persona {
	var personas []Persona
	for _, line := range lines {
		switch {
		case strings.HasPrefix(strings.ToLower(line), "persona"):
			name := line
			if idx := strings.Index(line, ":"); idx >= 0 {
				name = line[idx+1:]
			}
			name = strings.TrimSpace(name)
			if name == "" {
				name = "Persona"
			}
			personas = append(personas, Persona{Name: titleCase(name)})
		case p.roleKeyword.MatchString(line):
			name, desc, found := strings.Cut(line, ":")
			if !found {
				desc = line
			}
			personas = append(personas, Persona{
				Name:        titleCase(strings.TrimSpace(name)),
				Description: strings.TrimSpace(desc),
			})
		}
	}

	if len(personas) == 0 && len(sentences) > 0 {
		first := sentences[0]
		inferred := first
		if idx := strings.LastIndex(first, "for"); idx >= 0 {
			inferred = first[idx+len("for"):]
		}
		inferred = titleCase(strings.TrimSpace(inferred))
		if inferred == "" {
			inferred = "Primary Persona"
		}
		personas = append(personas, Persona{Name: inferred})
	}

	// Merge duplicates by lower-cased name, concatenating descriptions.
	var order []string
	merged := make(map[string]*Persona)
	for i := range personas {
		key := strings.ToLower(personas[i].Name)
		existing, ok := merged[key]
		if !ok {
			cp := personas[i]
			merged[key] = &cp
			order = append(order, key)
			continue
		}
		if personas[i].Description != "" && !strings.Contains(existing.Description, personas[i].Description) {
			existing.Description = strings.TrimSpace(existing.Description + " " + personas[i].Description)
		}
	}

	out := make([]Persona, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	return out
}

// featureInfo accumulates interactions and notes for one named feature
// while the line fold runs.
type featureInfo struct {
	summary      string
	interactions []string
	notes        []string
}

// moduleParseState is the explicit fold state threaded through the line
// loop: the module currently being described and the feature most
// recently started, plus accumulators for both.
type moduleParseState struct {
	currentModule string
	lastFeature   string
	moduleOrder   []string
	modules       map[string]map[string]struct{}
	featureOrder  []string
	features      map[string]*featureInfo
}

func newModuleParseState() *moduleParseState {
	return &moduleParseState{
		currentModule: "General",
		moduleOrder:   []string{"General"},
		modules:       map[string]map[string]struct{}{"General": {}},
		features:      make(map[string]*featureInfo),
	}
}

func (s *moduleParseState) setModule(name string) {
	s.currentModule = name
	if _, ok := s.modules[name]; !ok {
		s.modules[name] = make(map[string]struct{})
		s.moduleOrder = append(s.moduleOrder, name)
	}
	s.lastFeature = ""
}

func (s *moduleParseState) addFeature(name, cleaned string) {
	info, ok := s.features[name]
	if !ok {
		info = &featureInfo{summary: cleaned}
		s.features[name] = info
		s.featureOrder = append(s.featureOrder, name)
	}
	info.interactions = appendUnique(info.interactions, interactionFromText(cleaned))
	info.notes = appendUnique(info.notes, cleaned)
	if _, ok := s.modules[s.currentModule]; !ok {
		s.modules[s.currentModule] = make(map[string]struct{})
		s.moduleOrder = append(s.moduleOrder, s.currentModule)
	}
	s.modules[s.currentModule][name] = struct{}{}
	s.lastFeature = name
}

func (s *moduleParseState) continueFeature(cleaned, lower string) {
	info, ok := s.features[s.lastFeature]
	if !ok {
		return
	}
	info.notes = appendUnique(info.notes, cleaned)
	if containsAny(lower, interactionKeywords) {
		info.interactions = appendUnique(info.interactions, interactionFromText(cleaned))
	}
}

func (p *HeuristicParser) extractModulesAndFeatures(lines []string) ([]Module, []Feature) {
	state := newModuleParseState()

	for _, raw := range lines {
		lower := strings.ToLower(raw)

		if m := p.moduleHeading.FindStringSubmatch(raw); m != nil {
			state.setModule(titleCase(strings.TrimSpace(m[2])))
			continue
		}
		if isAllUpper(raw) && len(strings.Fields(raw)) <= 4 {
			state.setModule(titleCase(raw))
			continue
		}
		if p.looksLikeModuleHeading(raw) {
			state.setModule(strings.TrimSpace(strings.TrimRight(raw, ":")))
			continue
		}

		cleaned := strings.TrimSpace(p.bulletPrefix.ReplaceAllString(raw, ""))
		if cleaned == "" {
			continue
		}

		if strings.HasPrefix(raw, "-") || containsAny(lower, featureKeywords) {
			state.addFeature(featureNameFromText(cleaned), cleaned)
		} else if state.lastFeature != "" {
			state.continueFeature(cleaned, lower)
		}
	}

	// Drop the default bucket when nothing landed in it and real
	// modules were found.
	if len(state.moduleOrder) > 1 && len(state.modules["General"]) == 0 {
		delete(state.modules, "General")
		for i, name := range state.moduleOrder {
			if name == "General" {
				state.moduleOrder = append(state.moduleOrder[:i], state.moduleOrder[i+1:]...)
				break
			}
		}
	}

	modules := make([]Module, 0, len(state.moduleOrder))
	for _, name := range state.moduleOrder {
		modules = append(modules, Module{Name: name, Features: sortedKeys(state.modules[name])})
	}

	features := make([]Feature, 0, len(state.featureOrder))
	for _, name := range state.featureOrder {
		info := state.features[name]
		summary := ""
		if len(info.notes) > 0 {
			summary = info.notes[0]
		}
		priority := PriorityP2
		lowerSummary := strings.ToLower(summary)
		if strings.Contains(lowerSummary, "must") || strings.Contains(lowerSummary, "critical") {
			priority = PriorityP1
		}
		interactions := append([]string(nil), info.interactions...)
		sort.Strings(interactions)
		features = append(features, Feature{
			Name:               name,
			Summary:            summary,
			Priority:           priority,
			Dependencies:       []string{},
			AcceptanceCriteria: interactions,
		})
	}

	if len(features) == 0 {
		features = append(features, Feature{
			Name:               "General Feature",
			Summary:            "Initial placeholder feature.",
			Priority:           PriorityP2,
			Dependencies:       []string{},
			AcceptanceCriteria: []string{},
		})
	}

	return modules, features
}

// looksLikeModuleHeading reports whether a line reads like a section
// heading: short, not a bullet or sentence, and mostly capitalized.
func (p *HeuristicParser) looksLikeModuleHeading(line string) bool {
	if line == "" || strings.HasSuffix(line, ".") {
		return false
	}
	if strings.ContainsRune("-•*0123456789", firstRune(line)) {
		return false
	}
	if len(strings.Fields(line)) > 10 {
		return false
	}
	stripped := strings.TrimSpace(line)
	if stripped == strings.ToLower(stripped) {
		return false
	}
	normalized := p.parens.ReplaceAllString(stripped, " ")
	tokens := splitNonEmpty(p.headingTokens, normalized)
	if len(tokens) < 2 {
		return false
	}
	capitalized := 0
	for _, token := range tokens {
		r := firstRune(token)
		if unicode.IsLetter(r) && unicode.IsUpper(r) {
			capitalized++
		}
	}
	return float64(capitalized)/float64(len(tokens)) >= 0.6
}

func (p *HeuristicParser) extractFunctionalRequirements(sentences []string) []Requirement {
	var out []Requirement
	seen := make(map[string]struct{})
	for _, sentence := range sentences {
		if !p.requirementWord.MatchString(sentence) {
			continue
		}
		key := strings.ToLower(sentence)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Requirement{Statement: sentence})
		if len(out) == maxFunctionalRequirements {
			break
		}
	}
	return out
}

func (p *HeuristicParser) extractKeywordRequirements(sentences, lines []string, keywords []string, limit int) []Requirement {
	candidates := append([]string(nil), sentences...)
	for _, line := range lines {
		if strings.HasPrefix(line, "-") {
			candidates = append(candidates, strings.TrimSpace(p.bulletPrefix.ReplaceAllString(line, "")))
		}
	}

	var out []Requirement
	seen := make(map[string]struct{})
	for _, candidate := range candidates {
		if !containsAny(strings.ToLower(candidate), keywords) {
			continue
		}
		key := strings.ToLower(candidate)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Requirement{Statement: candidate})
		if len(out) == limit {
			break
		}
	}
	return out
}

func extractQuestions(lines []string) []OpenQuestion {
	var out []OpenQuestion
	for _, line := range lines {
		if strings.HasSuffix(line, "?") {
			out = append(out, OpenQuestion{Question: line})
			if len(out) == maxOpenQuestions {
				break
			}
		}
	}
	return out
}

func featureNameFromText(text string) string {
	name := text
	if idx := strings.Index(name, ":"); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.Index(name, "-"); idx >= 0 {
		name = name[:idx]
	}
	name = titleCase(strings.TrimSpace(name))
	if len(name) > maxFeatureNameLength {
		name = name[:maxFeatureNameLength]
	}
	return name
}

func interactionFromText(text string) string {
	return strings.TrimRight(strings.TrimSpace(text), ".")
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// splitSentences splits text on sentence-ending punctuation followed by
// whitespace, keeping the terminator with the sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(strings.TrimSpace(text))
	start := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// titleCase uppercases the first letter of every run of letters and
// lowercases the rest, so any non-letter starts a new word:
// "e-commerce" becomes "E-Commerce".
func titleCase(s string) string {
	runes := []rune(s)
	inWord := false
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r):
			inWord = false
		case inWord:
			runes[i] = unicode.ToLower(r)
		default:
			runes[i] = unicode.ToUpper(r)
			inWord = true
		}
	}
	return string(runes)
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func appendUnique(items []string, item string) []string {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}

func splitNonEmpty(re *regexp.Regexp, s string) []string {
	var out []string
	for _, token := range re.Split(s, -1) {
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
