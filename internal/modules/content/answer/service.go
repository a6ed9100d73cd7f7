package answer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rulemate-india/core/internal/models"
	"github.com/rulemate-india/core/internal/modules/processing/classify"
	"github.com/rulemate-india/core/internal/modules/processing/textnorm"
	"github.com/rulemate-india/core/internal/pkg/llm"
)

// Fixed user-facing messages.
const (
	MessageDetailed    = "Please ask a detailed question about Indian government rules, laws or procedures."
	MessageInvalid     = "Invalid query. Please ask a genuine question about Indian government rules."
	MessageOutOfDomain = "RuleMate India only answers questions about Indian government rules, laws, fines and official procedures."
	MessageUnavailable = "The answer service is temporarily unavailable. Please try again in a minute."
)

// ErrUnavailable wraps every completion failure: errors, timeouts and empty
// answers.
var ErrUnavailable = errors.New("answer service unavailable")

// Outcome is the terminal state of one resolution.
type Outcome string

const (
	OutcomeRejected Outcome = "rejected"
	OutcomeCached   Outcome = "cached"
	OutcomeCreated  Outcome = "created"
)

// Rejection reasons, also used as the error code of the no-JS form flow.
const (
	ReasonDetailed    = "detailed"
	ReasonInvalid     = "invalid"
	ReasonOutOfDomain = "out-of-domain"
	ReasonUnavailable = "unavailable"
)

// Result is what POST /ask returns.
type Result struct {
	Answer   string   `json:"answer"`
	Slug     string   `json:"slug"`
	Related  []string `json:"related"`
	Category string   `json:"category,omitempty"`
	Outcome  Outcome  `json:"-"`
	Reason   string   `json:"-"`
}

// RejectMessage maps a rejection reason to its fixed message.
func RejectMessage(reason string) (string, bool) {
	switch reason {
	case ReasonDetailed:
		return MessageDetailed, true
	case ReasonInvalid:
		return MessageInvalid, true
	case ReasonOutOfDomain:
		return MessageOutOfDomain, true
	case ReasonUnavailable:
		return MessageUnavailable, true
	}
	return "", false
}

func rejected(reason string) *Result {
	msg, _ := RejectMessage(reason)
	return &Result{Answer: msg, Related: []string{}, Outcome: OutcomeRejected, Reason: reason}
}

func fromRecord(rec *models.AnswerModel, outcome Outcome) *Result {
	related := []string(rec.Related)
	if len(related) > classify.MaxRelated {
		related = related[:classify.MaxRelated]
	}
	if related == nil {
		related = []string{}
	}
	return &Result{
		Answer:   rec.Answer,
		Slug:     rec.Slug,
		Related:  related,
		Category: rec.Category,
		Outcome:  outcome,
	}
}

type ServiceOption func(*Service)

// WithLogger sets the logger for the resolution service.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("AnswerService")
		}
	}
}

// Service runs the question resolution pipeline.
type Service struct {
	repo       Repository
	guard      *textnorm.Guard
	questions  *classify.QuestionClassifier
	categories *classify.CategoryClassifier
	completer  llm.Completer
	logger     *zap.Logger
}

func NewService(
	repo Repository,
	guard *textnorm.Guard,
	questions *classify.QuestionClassifier,
	categories *classify.CategoryClassifier,
	completer llm.Completer,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		repo:       repo,
		guard:      guard,
		questions:  questions,
		categories: categories,
		completer:  completer,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve turns raw question text into an answer. Rejections are results,
// not errors. Completion failures return ErrUnavailable; store failures are
// returned unchanged.
func (s *Service) Resolve(ctx context.Context, raw string) (*Result, error) {
	cleaned := textnorm.Clean(raw)
	slug := textnorm.Slugify(cleaned, s.guard.SlugMaxLength())

	switch s.guard.CheckQuestion(cleaned, slug) {
	case textnorm.TooShort:
		return rejected(ReasonDetailed), nil
	case textnorm.Invalid:
		return rejected(ReasonInvalid), nil
	}

	if rec, err := s.repo.FindByQuestion(ctx, cleaned); err != nil {
		return nil, err
	} else if rec != nil {
		return fromRecord(rec, OutcomeCached), nil
	}
	if rec, err := s.repo.FindBySlug(ctx, slug); err != nil {
		return nil, err
	} else if rec != nil {
		return fromRecord(rec, OutcomeCached), nil
	}

	accepted, err := s.questions.Classify(ctx, cleaned)
	if err != nil {
		s.logger.Warn("question classification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !accepted {
		return rejected(ReasonOutOfDomain), nil
	}

	rec, err := s.generate(ctx, cleaned, slug)
	if err != nil {
		s.logger.Warn("answer generation failed", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	stored, created, err := s.repo.InsertIfAbsent(ctx, rec)
	if err != nil {
		return nil, err
	}
	if !created {
		s.logger.Info("answer already stored by a concurrent request", zap.String("slug", slug))
		return fromRecord(stored, OutcomeCached), nil
	}
	s.logger.Info("answer stored", zap.String("slug", stored.Slug), zap.String("category", stored.Category))
	return fromRecord(stored, OutcomeCreated), nil
}

// generate issues the answer, related and category calls concurrently.
func (s *Service) generate(ctx context.Context, question, slug string) (*models.AnswerModel, error) {
	var (
		answerText string
		related    []string
		category   classify.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.completer.Complete(gctx, answerRequest(question))
		if err != nil {
			return fmt.Errorf("answer: %w", err)
		}
		answerText = text
		return nil
	})
	g.Go(func() error {
		text, err := s.completer.Complete(gctx, classify.RelatedRequest(question))
		if err != nil {
			return fmt.Errorf("related questions: %w", err)
		}
		related = classify.ParseRelated(text)
		return nil
	})
	g.Go(func() error {
		category = s.categories.Classify(gctx, question)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if answerText == "" {
		return nil, llm.ErrEmptyCompletion
	}

	return &models.AnswerModel{
		Slug:     slug,
		Question: question,
		Answer:   answerText,
		Related:  models.StringArray(related),
		Category: string(category),
	}, nil
}
