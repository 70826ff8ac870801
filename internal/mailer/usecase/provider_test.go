package usecase

import (
	"testing"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/stretchr/testify/assert"
)

func TestResolveProvider(t *testing.T) {
	requested := []entity.Provider{entity.ProviderNone, entity.ProviderRelay, entity.ProviderExchange}
	defaults := []entity.Provider{entity.ProviderRelay, entity.ProviderExchange}

	for _, req := range requested {
		for _, def := range defaults {
			want := req
			if !req.IsSet() {
				want = def
			}

			assert.Equal(t, want, ResolveProvider(req, def), "requested=%s default=%s", req, def)
		}
	}
}

func TestPrefixSubject(t *testing.T) {
	assert.Equal(t, "[Djazairmed] Hello", PrefixSubject("Hello"))
	assert.Equal(t, "[Djazairmed] Hello", PrefixSubject("[Djazairmed] Hello"))
	assert.Equal(t, "[Djazairmed] Hello", PrefixSubject(PrefixSubject("Hello")))
	assert.Equal(t, "[Djazairmed] ", PrefixSubject(""))
}
