package driven

import "github.com/custodia-labs/marginalia/internal/core/domain"

// TextListener receives text annotator mutations.
// Every call carries the entire current list, not a diff.
type TextListener interface {
	OnAdd(added domain.Annotation, all []domain.Annotation)
	OnUpdate(updated domain.Annotation, all []domain.Annotation)
	OnRemove(id string, all []domain.Annotation)
}

// MarkListener receives the entire mark list after every mutation.
type MarkListener interface {
	OnChange(marks []domain.Mark)
}

// MarkListenerFunc adapts a function to MarkListener.
type MarkListenerFunc func(marks []domain.Mark)

// OnChange calls f(marks).
func (f MarkListenerFunc) OnChange(marks []domain.Mark) {
	f(marks)
}
