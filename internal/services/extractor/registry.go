package extractor

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// Registry selects a field extractor variant per profile field.
type Registry struct {
	extractors map[string]interfaces.FieldExtractor
	fallback   interfaces.FieldExtractor
}

// NewRegistry wires the standard variants. The rule extractor is the
// fallback for fields with no declared method.
func NewRegistry(logger arbor.ILogger) *Registry {
	ruleExtractor := NewRuleExtractor(logger)
	return &Registry{
		extractors: map[string]interfaces.FieldExtractor{
			MethodRule:  ruleExtractor,
			MethodModel: NewModelExtractor(logger),
		},
		fallback: ruleExtractor,
	}
}

// Register adds or replaces a variant by method name.
func (r *Registry) Register(e interfaces.FieldExtractor) {
	r.extractors[e.Method()] = e
}

// ForField returns the extractor bound to the field's declared method.
func (r *Registry) ForField(field *models.FieldSpec) interfaces.FieldExtractor {
	if e, ok := r.extractors[field.Method]; ok {
		return e
	}
	return r.fallback
}
