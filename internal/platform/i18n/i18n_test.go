package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedCatalogs(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "ar", "fr"}, b.Locales())
	assert.True(t, b.Supported("fr"))
	assert.True(t, b.Supported("FR-ca"))
	assert.False(t, b.Supported("de"))
}

func TestT_FallbackChain(t *testing.T) {
	b := MustLoad()

	assert.Equal(t, "Conflit", b.T("fr", "problem.conflict"))
	// ar has no entry for this key, so the English text is used.
	assert.Equal(t, b.T("en", "errors.idempotency_conflict"), b.T("ar", "errors.idempotency_conflict"))
	assert.Equal(t, "errors.unknown_key", b.T("fr", "errors.unknown_key"))
	assert.Equal(t, b.T("en", "problem.conflict"), b.T("de", "problem.conflict"))
}

func TestT_SubstitutesPlaceholders(t *testing.T) {
	b := MustLoad()

	got := b.T("en", "validation.quantity", "min", 1, "max", 10)
	assert.Equal(t, "Quantity must be between 1 and 10.", got)

	got = b.T("fr", "order.placed", "number", "PF-0A1B2C3D")
	assert.Contains(t, got, "PF-0A1B2C3D")
}

func TestMatch_AcceptLanguage(t *testing.T) {
	b := MustLoad()

	assert.Equal(t, "fr", b.Match("fr-CA,fr;q=0.9,en;q=0.5"))
	assert.Equal(t, "ar", b.Match("ar-EG"))
	assert.Equal(t, "en", b.Match("en-GB,en;q=0.8"))
	assert.Equal(t, "", b.Match(""))
	assert.Equal(t, "", b.Match(";;;"))
}

func TestResolve_Order(t *testing.T) {
	b := MustLoad()

	assert.Equal(t, "ar", b.Resolve("ar", "fr", "en", "fr"))
	assert.Equal(t, "fr", b.Resolve("", "fr", "ar", "en"))
	assert.Equal(t, "ar", b.Resolve("xx", "", "ar", "fr"))
	assert.Equal(t, "fr", b.Resolve("", "", "", "fr-FR"))
	assert.Equal(t, DefaultLocale, b.Resolve("", "", "", "ja"))
}

func TestLoadFS_RequiresDefaultLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/fr.yaml": {Data: []byte("a: b\n")},
	}
	_, err := LoadFS(fsys, "locales")
	require.Error(t, err)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "rtl", Direction("ar"))
	assert.Equal(t, "ltr", Direction("fr"))
}
