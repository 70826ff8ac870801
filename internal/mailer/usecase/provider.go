package usecase

import (
	"strings"

	"github.com/djazairmed/mailer/internal/mailer/entity"
)

// SubjectPrefix tags every subject sent through exchange.
const SubjectPrefix = "[Djazairmed] "

// ResolveProvider returns requested when set, else def.
func ResolveProvider(requested, def entity.Provider) entity.Provider {
	if requested.IsSet() {
		return requested
	}
	return def
}

// PrefixSubject adds SubjectPrefix unless subject already starts with it.
func PrefixSubject(subject string) string {
	if strings.HasPrefix(subject, strings.TrimSpace(SubjectPrefix)) {
		return subject
	}
	return SubjectPrefix + subject
}
