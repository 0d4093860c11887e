package document

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/scopegen/internal/llm"
	"github.com/fyrsmithlabs/scopegen/internal/scope"
)

// Strategy selects how scope documents are generated.
type Strategy string

const (
	StrategyHeuristic Strategy = "heuristic"
	StrategyLLM       Strategy = "llm"
	StrategyHybrid    Strategy = "hybrid"
)

// clarificationPrompt is the fixed question asked when a submission is
// too short to generate a scope from directly.
const clarificationPrompt = "Please provide additional context: personas involved, goals, and KPIs discussed."

// ScopeGenerator produces a scope document from composed source text.
// The LLM generator implements this; tests substitute fakes.
type ScopeGenerator interface {
	Generate(ctx context.Context, content string) (scope.Document, error)
}

// RenderFunc converts a scope document into export bytes. The Excel and
// PDF renderers are passed in as collaborators of this shape.
type RenderFunc func(*scope.Document) ([]byte, error)

// ExtractFunc converts raw uploaded bytes into text. File parsing is a
// collaborator of this shape; the service never inspects file formats.
type ExtractFunc func(filename string, data []byte) string

// Config holds the lifecycle tuning knobs.
type Config struct {
	// ClarificationMinLength is the content length below which a
	// clarification is requested instead of generating immediately.
	ClarificationMinLength int
	// ClarificationTimeout is how long a clarification stays open.
	ClarificationTimeout time.Duration
	// Strategy selects heuristic, llm, or hybrid generation.
	Strategy Strategy
}

// Deps holds the service's collaborators. Generator may be nil, in
// which case the heuristic parser is the only generation path.
type Deps struct {
	Generator   ScopeGenerator
	Extract     ExtractFunc
	RenderExcel RenderFunc
	RenderPDF   RenderFunc
}

// Service orchestrates the document lifecycle: submission, the
// clarification gate, scope generation dispatch, and exports.
type Service struct {
	cfg         Config
	store       *Store
	parser      *scope.HeuristicParser
	generator   ScopeGenerator
	extract     ExtractFunc
	renderExcel RenderFunc
	renderPDF   RenderFunc
	logger      *zap.Logger
}

// NewService creates the lifecycle service.
func NewService(cfg Config, store *Store, deps Deps, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ClarificationMinLength == 0 {
		cfg.ClarificationMinLength = 500
	}
	if cfg.ClarificationTimeout == 0 {
		cfg.ClarificationTimeout = 24 * time.Hour
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyHeuristic
	}
	return &Service{
		cfg:         cfg,
		store:       store,
		parser:      scope.NewHeuristicParser(),
		generator:   deps.Generator,
		extract:     deps.Extract,
		renderExcel: deps.RenderExcel,
		renderPDF:   deps.RenderPDF,
		logger:      logger,
	}
}

// SubmitText ingests pasted or fetched text content.
func (s *Service) SubmitText(ctx context.Context, sourceType SourceType, content string, meta *Metadata) (*SubmitResult, error) {
	rec := s.newRecord(sourceType, meta)
	rec.Content = content
	rec.ContentLength = len(content)
	s.store.Save(rec)

	status, err := s.gate(ctx, rec.DocID, len(content))
	if err != nil {
		return nil, err
	}
	return &SubmitResult{
		DocID:   rec.DocID,
		Status:  status,
		Message: "Document accepted for processing.",
	}, nil
}

// SubmitFile ingests an uploaded file. The raw bytes are converted to
// text by the extraction collaborator before entering the pipeline; the
// clarification threshold is compared against the raw byte length.
func (s *Service) SubmitFile(ctx context.Context, sourceType SourceType, filename string, data []byte, meta *Metadata) (*SubmitResult, error) {
	rec := s.newRecord(sourceType, meta)
	rec.OriginalFilename = filename
	rec.ContentLength = len(data)
	if s.extract != nil {
		rec.Content = s.extract(filename, data)
	} else {
		rec.Content = string(data)
	}
	s.store.Save(rec)

	status, err := s.gate(ctx, rec.DocID, len(data))
	if err != nil {
		return nil, err
	}
	return &SubmitResult{
		DocID:   rec.DocID,
		Status:  status,
		Message: "Document accepted for processing.",
	}, nil
}

func (s *Service) newRecord(sourceType SourceType, meta *Metadata) *Record {
	now := time.Now().UTC()
	return &Record{
		DocID:      uuid.New(),
		SourceType: sourceType,
		Status:     StatusProcessing,
		Stage:      StageIngestion,
		Progress:   20,
		Metadata:   meta,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// gate applies the clarification threshold: long enough content goes
// straight to generation, anything shorter gets one context question.
// Record transitions run under the store lock via Mutate.
func (s *Service) gate(ctx context.Context, id uuid.UUID, contentLength int) (Status, error) {
	if contentLength >= s.cfg.ClarificationMinLength {
		s.store.Mutate(id, func(rec *Record) {
			rec.Status = StatusReadyForPreprocessing
			rec.Stage = StagePreprocessing
			rec.Progress = 100
			rec.Touch()
		})
		if err := s.generateScope(ctx, id); err != nil {
			return "", err
		}
		s.logger.Info("document ready for preprocessing", zap.String("doc_id", id.String()))
		return StatusReadyForPreprocessing, nil
	}

	clar := NewClarification(clarificationPrompt, CategoryContext, s.cfg.ClarificationTimeout)
	s.store.Mutate(id, func(rec *Record) {
		rec.Status = StatusAwaitingClarification
		rec.Stage = StageClarification
		rec.Progress = 40
		rec.Clarifications = append(rec.Clarifications, clar)
		rec.Touch()
	})
	s.logger.Info("clarification requested",
		zap.String("doc_id", id.String()),
		zap.String("clarification_id", clar.ID.String()),
	)
	return StatusAwaitingClarification, nil
}

// Status returns the read-model for a document.
func (s *Service) Status(id uuid.UUID) (*StatusInfo, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &StatusInfo{
		DocID:                 rec.DocID,
		Status:                rec.Status,
		Stage:                 rec.Stage,
		Progress:              rec.Progress,
		ClarificationRequired: rec.Status == StatusAwaitingClarification,
		ScopeAvailable:        rec.Scope != nil,
		LastUpdated:           rec.UpdatedAt,
	}, nil
}

// Clarifications lists a document's clarifications. Expiry is lazy:
// open items past their deadline are flipped to expired here, on read,
// rather than by a background timer.
func (s *Service) Clarifications(id uuid.UUID) ([]*Clarification, error) {
	var items []*Clarification
	ok := s.store.Mutate(id, func(rec *Record) {
		expireStale(rec)
		for _, clar := range rec.Clarifications {
			items = append(items, clar.Clone())
		}
	})
	if !ok {
		return nil, ErrNotFound
	}
	return items, nil
}

// expireStale flips open clarifications past their deadline to
// expired. Callers hold the store lock.
func expireStale(rec *Record) {
	changed := false
	now := time.Now().UTC()
	for _, clar := range rec.Clarifications {
		if clar.Status == ClarificationOpen && clar.ExpiresAt.Before(now) {
			clar.Status = ClarificationExpired
			changed = true
		}
	}
	if changed {
		rec.Touch()
	}
}

// AnswerClarification resolves an open clarification with the given
// answer, appends the answer to the document content, and triggers
// scope generation.
func (s *Service) AnswerClarification(ctx context.Context, docID, clarificationID uuid.UUID, answer string) error {
	var opErr error
	ok := s.store.Mutate(docID, func(rec *Record) {
		var clar *Clarification
		for _, c := range rec.Clarifications {
			if c.ID == clarificationID {
				clar = c
				break
			}
		}
		if clar == nil {
			opErr = fmt.Errorf("%w: clarification not found", ErrClarification)
			return
		}
		if clar.Status == ClarificationOpen && clar.ExpiresAt.Before(time.Now().UTC()) {
			clar.Status = ClarificationExpired
			rec.Touch()
		}
		if clar.Status != ClarificationOpen {
			opErr = fmt.Errorf("%w: already answered or expired", ErrClarification)
			return
		}

		now := time.Now().UTC()
		clar.Answer = answer
		clar.Status = ClarificationAnswered
		clar.AnsweredAt = &now
		rec.Content = strings.TrimSpace(rec.Content + "\n" + answer)

		rec.Status = StatusReadyForPreprocessing
		rec.Stage = StagePreprocessing
		rec.Progress = 100
		rec.Touch()
	})
	if !ok {
		return ErrNotFound
	}
	if opErr != nil {
		return opErr
	}

	return s.generateScope(ctx, docID)
}

// Cancel moves a document to the cancelled state.
func (s *Service) Cancel(id uuid.UUID) error {
	ok := s.store.Mutate(id, func(rec *Record) {
		rec.Status = StatusCancelled
		rec.Stage = StageIngestion
		rec.Touch()
	})
	if !ok {
		return ErrNotFound
	}
	s.logger.Info("document cancelled", zap.String("doc_id", id.String()))
	return nil
}

// Scope returns the latest scope document.
func (s *Service) Scope(id uuid.UUID) (*scope.Document, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Scope == nil {
		return nil, ErrScopeNotAvailable
	}
	return rec.Scope, nil
}

// Modules lists modules with their assigned features. Features not
// referenced by any module are grouped under "Unassigned".
func (s *Service) Modules(id uuid.UUID) ([]ModuleListItem, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Scope == nil {
		return nil, ErrScopeNotAvailable
	}

	var order []string
	assigned := make(map[string][]string)
	inModule := make(map[string]bool)
	for _, mod := range rec.Scope.Modules {
		order = append(order, mod.Name)
		assigned[mod.Name] = append([]string(nil), mod.Features...)
		for _, f := range mod.Features {
			inModule[f] = true
		}
	}
	for _, feature := range rec.Scope.Features {
		if !inModule[feature.Name] {
			if _, ok := assigned["Unassigned"]; !ok {
				order = append(order, "Unassigned")
			}
			assigned["Unassigned"] = append(assigned["Unassigned"], feature.Name)
		}
	}

	items := make([]ModuleListItem, 0, len(order))
	for _, name := range order {
		features := assigned[name]
		sort.Strings(features)
		items = append(items, ModuleListItem{Name: name, Features: features})
	}
	return items, nil
}

// ExportExcel renders the latest scope as spreadsheet bytes.
func (s *Service) ExportExcel(id uuid.UUID) ([]byte, error) {
	return s.export(id, s.renderExcel)
}

// ExportPDF renders the latest scope as PDF bytes.
func (s *Service) ExportPDF(id uuid.UUID) ([]byte, error) {
	return s.export(id, s.renderPDF)
}

func (s *Service) export(id uuid.UUID, render RenderFunc) ([]byte, error) {
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Scope == nil {
		return nil, ErrScopeNotAvailable
	}
	if render == nil {
		return nil, errors.New("no renderer configured")
	}
	return render(rec.Scope)
}

// Preview parses raw text into a scope document with the heuristic
// parser, without creating a record. Previews never touch the LLM
// path.
func (s *Service) Preview(content string) scope.Document {
	return s.parser.Parse(content)
}

// generateScope composes the source text and runs the configured
// generation strategy. A blank source skips generation entirely. The
// generator call runs on a snapshot, outside the store lock; only the
// final write takes it.
func (s *Service) generateScope(ctx context.Context, id uuid.UUID) error {
	rec, ok := s.store.Get(id)
	if !ok {
		return ErrNotFound
	}

	source := composeSource(rec)
	if strings.TrimSpace(source) == "" {
		s.logger.Info("skipping scope generation, no usable content",
			zap.String("doc_id", id.String()))
		return nil
	}

	doc, err := s.generateWithStrategy(ctx, source, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	s.store.Mutate(id, func(rec *Record) {
		rec.ScopeVersion++
		rec.Scope = &doc
		rec.ScopeGeneratedAt = &now
		rec.ScopeHistory = append(rec.ScopeHistory, doc.Clone())
		rec.Touch()
	})
	return nil
}

// generateWithStrategy dispatches to the LLM generator when configured
// and falls back to the heuristic parser on provider or parse failures.
// Those failures never abort the calling flow.
func (s *Service) generateWithStrategy(ctx context.Context, source string, docID uuid.UUID) (scope.Document, error) {
	if (s.cfg.Strategy == StrategyLLM || s.cfg.Strategy == StrategyHybrid) && s.generator != nil {
		doc, err := s.generator.Generate(ctx, source)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, llm.ErrProvider) && !errors.Is(err, llm.ErrParse) {
			return scope.Document{}, err
		}
		s.logger.Warn("llm scope generation failed, falling back to heuristic parser",
			zap.String("doc_id", docID.String()),
			zap.Error(err),
		)
	}
	return s.parser.Parse(source), nil
}

// composeSource joins the original content with every answered
// clarification's answer text.
func composeSource(rec *Record) string {
	parts := []string{rec.Content}
	for _, clar := range rec.Clarifications {
		if clar.Answer != "" {
			parts = append(parts, "Clarification Answer: "+clar.Answer)
		}
	}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n")
}
