package classify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/rulemate-india/core/internal/pkg/llm"
)

// Category is one label of the closed category set.
type Category string

const (
	CategoryTraffic           Category = "traffic"
	CategoryPassport          Category = "passport"
	CategoryIncomeTax         Category = "income-tax"
	CategoryPolice            Category = "police"
	CategoryIdentityDocuments Category = "identity-documents"
	CategoryConstitution      Category = "constitution"
	CategoryGeneral           Category = "general"
)

var allCategories = []Category{
	CategoryTraffic,
	CategoryPassport,
	CategoryIncomeTax,
	CategoryPolice,
	CategoryIdentityDocuments,
	CategoryConstitution,
	CategoryGeneral,
}

var categoryNames = map[Category]string{
	CategoryTraffic:           "Traffic Rules",
	CategoryPassport:          "Passport",
	CategoryIncomeTax:         "Income Tax",
	CategoryPolice:            "Police & FIR",
	CategoryIdentityDocuments: "Identity Documents",
	CategoryConstitution:      "Constitution",
	CategoryGeneral:           "General",
}

// Categories returns every label in display order.
func Categories() []Category {
	return append([]Category(nil), allCategories...)
}

// DisplayName is the human-readable heading for c.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[CategoryGeneral]
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory normalizes a label as written by a model or a URL.
// Unknown labels report false.
func ParseCategory(raw string) (Category, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "label:")
	s = strings.Trim(s, " \t\r\n\"'`.*")
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "-")
	c := Category(s)
	if !c.Valid() {
		return CategoryGeneral, false
	}
	return c, true
}

// CategoryClassifier assigns a category with one model call and never fails:
// call errors and unknown replies fall back to CategoryGeneral.
type CategoryClassifier struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewCategoryClassifier expects a completer that does not retry.
func NewCategoryClassifier(completer llm.Completer, opts ...Option) *CategoryClassifier {
	o := buildOptions(opts)
	return &CategoryClassifier{completer: completer, logger: o.logger.Named("CategoryClassifier")}
}

func (c *CategoryClassifier) Classify(ctx context.Context, question string) Category {
	reply, err := c.completer.Complete(ctx, categoryRequest(question))
	if err != nil {
		c.logger.Warn("category call failed, using default", zap.Error(err))
		return CategoryGeneral
	}
	category, ok := ParseCategory(reply)
	if !ok {
		c.logger.Debug("unrecognized category reply", zap.String("reply", reply))
	}
	return category
}
