// Package locale holds the i18n bundle used for email subjects and other
// user-facing strings.
package locale

import (
	"embed"
	"io/fs"
	"strings"

	"github.com/usergate/usergate/logger"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed translation/*
var translationFS embed.FS

var i18nBundle *i18n.Bundle

// InitLocalizer parses the embedded translation bundles. English is the
// fallback language.
func InitLocalizer() error {
	i18nBundle = i18n.NewBundle(language.MustParse("en-US"))
	i18nBundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	return parseTranslationFiles(translationFS, i18nBundle)
}

func parseTranslationFiles(i18nFS embed.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := i18nFS.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
}

func createTemplateData(params []string) map[string]any {
	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, "==", 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}
	return templateData
}

// I18n localizes key for the given locale with "name==value" template params,
// falling back to English when the locale or key has no translation.
func I18n(locale, key string, params ...string) string {
	if i18nBundle == nil {
		return key
	}

	localizer := i18n.NewLocalizer(i18nBundle, locale, "en-US")
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Warningf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}
