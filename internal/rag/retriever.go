package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultTopK is the number of similar examples returned when not
// configured otherwise.
const DefaultTopK = 3

// maxExampleChars caps how much example input text is carried into a
// prompt.
const maxExampleChars = 2000

// inputExtensions are the example input file types the retriever loads.
var inputExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
}

// ExtractFunc converts raw example file bytes into text.
type ExtractFunc func(filename string, data []byte) string

// Example is one retrieved few-shot example.
type Example struct {
	Name       string
	InputText  string
	OutputJSON json.RawMessage
	Similarity float64
}

// Retriever loads paired example documents (input text plus
// gold-standard scope JSON, paired by filename stem) and retrieves the
// most similar ones for a query. Loading is lazy, happens once, and is
// guarded by a mutex so concurrent first calls stay safe.
type Retriever struct {
	inputDir  string
	outputDir string
	topK      int
	embedder  Embedder
	extract   ExtractFunc
	logger    *zap.Logger

	mu         sync.Mutex
	loaded     bool
	names      []string
	texts      map[string]string
	embeddings map[string][]float32
	outputs    map[string]json.RawMessage
}

// NewRetriever creates a retriever over the given example directories.
func NewRetriever(inputDir, outputDir string, topK int, embedder Embedder, extract ExtractFunc, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if extract == nil {
		extract = func(_ string, data []byte) string { return string(data) }
	}
	return &Retriever{
		inputDir:   inputDir,
		outputDir:  outputDir,
		topK:       topK,
		embedder:   embedder,
		extract:    extract,
		logger:     logger,
		texts:      make(map[string]string),
		embeddings: make(map[string][]float32),
		outputs:    make(map[string]json.RawMessage),
	}
}

// load reads and embeds the example corpus. A failure to load one
// example skips that example; it is never fatal to the retriever.
func (r *Retriever) load(ctx context.Context) {
	if r.loaded {
		return
	}
	r.loaded = true

	entries, err := os.ReadDir(r.inputDir)
	if err != nil {
		r.logger.Warn("cannot read example input directory",
			zap.String("dir", r.inputDir), zap.Error(err))
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !inputExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		outputPath := filepath.Join(r.outputDir, stem+".json")
		if _, err := os.Stat(outputPath); err != nil {
			r.logger.Warn("no matching output file for example",
				zap.String("input", entry.Name()), zap.String("expected", stem+".json"))
			continue
		}

		if err := r.loadExample(ctx, entry.Name(), stem, outputPath); err != nil {
			r.logger.Error("failed to load example",
				zap.String("input", entry.Name()), zap.Error(err))
		}
	}

	r.logger.Info("loaded example document pairs", zap.Int("count", len(r.embeddings)))
}

func (r *Retriever) loadExample(ctx context.Context, inputName, stem, outputPath string) error {
	data, err := os.ReadFile(filepath.Join(r.inputDir, inputName))
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	text := r.extract(inputName, data)
	if strings.TrimSpace(text) == "" {
		r.logger.Warn("empty text extracted from example", zap.String("input", inputName))
		return nil
	}

	vec, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding example: %w", err)
	}

	outputData, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("reading output: %w", err)
	}
	if !json.Valid(outputData) {
		return fmt.Errorf("output %s is not valid JSON", filepath.Base(outputPath))
	}

	r.names = append(r.names, stem)
	r.texts[stem] = text
	r.embeddings[stem] = vec
	r.outputs[stem] = json.RawMessage(outputData)
	return nil
}

// FindSimilarExamples returns the top-k examples most similar to the
// query text, sorted by non-increasing similarity. An empty corpus or
// a blank query yields an empty result.
func (r *Retriever) FindSimilarExamples(ctx context.Context, query string) ([]Example, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.load(ctx)

	if len(r.embeddings) == 0 {
		r.logger.Warn("no example documents available for retrieval")
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		r.logger.Warn("empty query text for similarity search")
		return nil, nil
	}

	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	type scored struct {
		name       string
		similarity float64
	}
	scores := make([]scored, 0, len(r.names))
	for _, name := range r.names {
		scores = append(scores, scored{name: name, similarity: dot(queryVec, r.embeddings[name])})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].similarity > scores[j].similarity })
	if len(scores) > r.topK {
		scores = scores[:r.topK]
	}

	results := make([]Example, 0, len(scores))
	for _, s := range scores {
		text := r.texts[s.name]
		if len(text) > maxExampleChars {
			text = text[:maxExampleChars] + "..."
		}
		results = append(results, Example{
			Name:       s.name,
			InputText:  text,
			OutputJSON: r.outputs[s.name],
			Similarity: s.similarity,
		})
	}
	r.logger.Debug("retrieved similar examples", zap.Int("count", len(results)))
	return results, nil
}

// FormatExamplesForPrompt renders examples as a deterministic few-shot
// block for inclusion in an LLM prompt.
func (r *Retriever) FormatExamplesForPrompt(examples []Example) string {
	if len(examples) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("=== FEW-SHOT EXAMPLES ===\n")
	b.WriteString("Below are examples of similar requirement documents and their structured outputs.\n")
	b.WriteString("Study these examples carefully to understand:\n")
	b.WriteString("1. How to extract information accurately from the document\n")
	b.WriteString("2. How to organize modules and features logically\n")
	b.WriteString("3. The level of detail expected in summaries and acceptance criteria\n")
	b.WriteString("4. How to identify personas, requirements, and other elements\n\n")

	for i, example := range examples {
		fmt.Fprintf(&b, "--- Example %d (similarity: %.1f%%) ---\n", i+1, example.Similarity*100)
		b.WriteString("Input document (excerpt):\n")
		b.WriteString(example.InputText)
		b.WriteString("\n\nExpected structured output format:\n")
		b.WriteString(prettyJSON(example.OutputJSON))
		b.WriteString("\n\n\n")
	}

	b.WriteString("=== END EXAMPLES ===\n\n")
	b.WriteString("IMPORTANT: Follow the structure and level of detail shown in these examples. ")
	b.WriteString("Extract information accurately from the document - do not paraphrase unnecessarily. ")
	b.WriteString("Group features into logical modules. Provide detailed summaries and acceptance criteria.\n")
	return b.String()
}

func prettyJSON(raw json.RawMessage) string {
	var buf strings.Builder
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(decoded); err != nil {
		return string(raw)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// dot computes the dot product of two vectors. Inputs are normalized,
// so this is the cosine similarity.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize scales a vector to unit length in place.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
