package domain

import (
	"strings"
	"time"
)

// DefaultDateLayout is the en-US short date form (MM/DD/YYYY).
const DefaultDateLayout = "01/02/2006"

// LocaleDateLayout is the configured layout value that selects the short
// date form of the user's locale.
const LocaleDateLayout = "locale"

// localeLayouts maps a language or language_REGION tag to its short date form.
var localeLayouts = map[string]string{
	"en_US": DefaultDateLayout,
	"en_CA": "2006-01-02",
	"en_GB": "02/01/2006",
	"en_AU": "02/01/2006",
	"en_NZ": "02/01/2006",
	"en_IE": "02/01/2006",
	"en_IN": "02/01/2006",
	"en":    DefaultDateLayout,
	"de":    "02.01.2006",
	"fr_CA": "2006-01-02",
	"fr":    "02/01/2006",
	"es":    "02/01/2006",
	"it":    "02/01/2006",
	"pt":    "02/01/2006",
	"nl":    "02-01-2006",
	"ru":    "02.01.2006",
	"pl":    "02.01.2006",
	"sv":    "2006-01-02",
	"da":    "02.01.2006",
	"nb":    "02.01.2006",
	"fi":    "2.1.2006",
	"ja":    "2006/01/02",
	"zh":    "2006/1/2",
	"ko":    "2006. 1. 2.",
}

// LocaleLayout returns the short date layout for a POSIX locale such as
// "de_DE.UTF-8". Unknown, empty, "C" and "POSIX" locales use DefaultDateLayout.
func LocaleLayout(locale string) string {
	tag := strings.TrimSpace(locale)
	if i := strings.IndexAny(tag, ".@"); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ReplaceAll(tag, "-", "_")
	if layout, ok := localeLayouts[tag]; ok {
		return layout
	}
	if lang, _, ok := strings.Cut(tag, "_"); ok {
		if layout, ok := localeLayouts[lang]; ok {
			return layout
		}
	}
	return DefaultDateLayout
}

// ResolveDateLayout turns a configured layout into a time layout. The
// LocaleDateLayout value defers to locale.
func ResolveDateLayout(configured, locale string) string {
	switch layout := strings.TrimSpace(configured); {
	case layout == "":
		return DefaultDateLayout
	case strings.EqualFold(layout, LocaleDateLayout):
		return LocaleLayout(locale)
	default:
		return layout
	}
}

// FormatDateRange renders "start - due" from whichever dates are present.
// Dates are calendar days stored at UTC, so they are formatted in UTC.
func FormatDateRange(start, due *time.Time, layout string) string {
	if strings.TrimSpace(layout) == "" {
		layout = DefaultDateLayout
	}
	var b strings.Builder
	if start != nil {
		b.WriteString(start.UTC().Format(layout))
		b.WriteString(" - ")
	}
	if due != nil {
		b.WriteString(due.UTC().Format(layout))
	}
	return b.String()
}
