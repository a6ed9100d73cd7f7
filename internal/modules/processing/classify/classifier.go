// Package classify decides whether a question belongs to the service's
// domain, which category it falls in, and cleans up model-written related
// questions.
package classify

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rulemate-india/core/internal/pkg/llm"
)

// DefaultMinChars is the length below which a question without any domain
// keyword is rejected without asking the model.
const DefaultMinChars = 20

// Multi-word or distinctive terms only: short ambiguous stems such as "act"
// or "pan" would match unrelated words.
var defaultKeywords = []string{
	"fine", "penalty", "challan", "law", "rule", "regulation", "section", "ipc", "crpc",
	"bharatiya nyaya", "court", "police", "complaint", "arrest", "bail", "punishment",
	"legal", "passport", "visa application", "aadhaar", "aadhar", "pan card", "voter id",
	"ration card", "driving licence", "driving license", "licence", "license", "rto",
	"traffic", "helmet", "seat belt", "income tax", "gst", "itr", "taxes", "tax return", "road tax",
	"government", "govt", "ministry", "scheme", "yojana", "pension", "subsidy", "right to information",
	"constitution", "fundamental right", "article 21", "parliament", "registration",
	"certificate", "stamp duty", "property", "consumer", "epfo", "labour", "minimum wage",
	"dowry", "marriage act", "cyber crime", "municipal",
}

// Option configures a classifier.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	keywords []string
	minChars int
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithExtraKeywords appends domain keywords to the built-in list.
func WithExtraKeywords(words []string) Option {
	return func(o *options) { o.keywords = append(o.keywords, words...) }
}

// WithMinChars overrides the no-keyword length threshold.
func WithMinChars(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minChars = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), minChars: DefaultMinChars}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// QuestionClassifier accepts or rejects a question for the domain.
type QuestionClassifier struct {
	completer llm.Completer
	keywords  []string
	minChars  int
	logger    *zap.Logger
}

func NewQuestionClassifier(completer llm.Completer, opts ...Option) *QuestionClassifier {
	o := buildOptions(opts)
	seen := make(map[string]struct{})
	keywords := make([]string, 0, len(defaultKeywords)+len(o.keywords))
	for _, kw := range append(append([]string{}, defaultKeywords...), o.keywords...) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	return &QuestionClassifier{
		completer: completer,
		keywords:  keywords,
		minChars:  o.minChars,
		logger:    o.logger.Named("QuestionClassifier"),
	}
}

// MatchesKeyword reports whether text contains a domain keyword.
func (c *QuestionClassifier) MatchesKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Classify reports whether text is in the domain. Only the model fallback
// can fail; its error means the decision could not be made.
func (c *QuestionClassifier) Classify(ctx context.Context, text string) (bool, error) {
	if c.MatchesKeyword(text) {
		return true, nil
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < c.minChars {
		return false, nil
	}

	reply, err := c.completer.Complete(ctx, domainRequest(text))
	if err != nil {
		return false, fmt.Errorf("classify question: %w", err)
	}
	accepted := strings.Contains(strings.ToUpper(reply), "YES")
	c.logger.Debug("model classification", zap.Bool("accepted", accepted))
	return accepted, nil
}
