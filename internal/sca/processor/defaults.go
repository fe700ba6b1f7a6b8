package processor

import "github.com/wso2/xs2a-sca-engine/internal/sca/model"

// Defaults returns the production processors for every resource kind.
func Defaults(deps Deps) []Processor {
	processors := make([]Processor, 0, len(model.AllResourceKinds)*8)
	for _, kind := range model.AllResourceKinds {
		processors = append(processors,
			NewEmbeddedStart(kind, deps),
			NewEmbeddedAuthenticate(kind, deps),
			NewEmbeddedSelectMethod(kind, deps),
			NewEmbeddedFinalise(kind, deps),
			NewDecoupledStart(kind, deps),
			NewDecoupledFinalise(kind, deps),
			NewRedirectStart(kind, deps),
			NewRedirectConfirmation(kind, deps),
		)
	}
	return processors
}
