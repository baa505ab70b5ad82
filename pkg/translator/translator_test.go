package translator_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/pkg/translator"
)

func localize(t *testing.T, lang, id string) string {
	t.Helper()

	msg, err := i18n.NewLocalizer(translator.Translator, lang).Localize(&i18n.LocalizeConfig{MessageID: id})
	require.NoError(t, err)
	return msg
}

func TestInitTranslatorLoadsBuiltinMessages(t *testing.T) {
	translator.InitTranslator(translator.Config{})

	assert.Equal(t, "Project not found.", localize(t, translator.LanguageEn, "projectNotFound"))
	assert.Equal(t, "Projet introuvable.", localize(t, translator.LanguageFr, "projectNotFound"))
}

func TestInitTranslatorFolderOverrides(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
projectNotFound = "No such project"
hello = "Hello english"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.toml"), content, 0o644))

	translator.InitTranslator(translator.Config{TranslationFolder: dir})

	assert.Equal(t, "No such project", localize(t, translator.LanguageEn, "projectNotFound"))
	assert.Equal(t, "Hello english", localize(t, translator.LanguageEn, "hello"))
}

func TestInitTranslatorInvalidFolder(t *testing.T) {
	translator.InitTranslator(translator.Config{TranslationFolder: "/path/does/not/exist"})

	assert.Equal(t, "Task not found.", localize(t, translator.LanguageEn, "taskNotFound"))
}
