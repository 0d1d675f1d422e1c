package staticgen

import (
	"slices"

	"git.home.luguber.info/inful/langexport/internal/config"
	"git.home.luguber.info/inful/langexport/internal/routes"
)

// Options configure the multi-language export module.
type Options struct {
	GenerateLanguages    []string
	DefaultLanguage      string
	RedirectDefaultLang  bool
	RequiredFilesModules []string
}

// OptionsFromConfig extracts module options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	sg := cfg.StaticGenerate
	return Options{
		GenerateLanguages:    slices.Clone(sg.GenerateLanguages),
		DefaultLanguage:      sg.DefaultLanguage,
		RedirectDefaultLang:  sg.RedirectDefault(),
		RequiredFilesModules: slices.Clone(sg.RequiredFilesModules),
	}
}

// Resolved are validated options together with the derived explicit language set.
// A Resolved value is never mutated after Resolve returns.
type Resolved struct {
	Options
	// LanguagesExplicit are the codes reachable through a path prefix.
	LanguagesExplicit []string
}

// Resolve validates the options, fills in the default language and derives the
// explicit language set. The default language is the first configured language
// unless set.
func (o Options) Resolve() (*Resolved, error) {
	if o.DefaultLanguage == "" {
		for _, code := range o.GenerateLanguages {
			if code != "" {
				o.DefaultLanguage = code
				break
			}
		}
	}
	if err := config.ValidateLanguages(o.GenerateLanguages, o.DefaultLanguage); err != nil {
		return nil, err
	}

	explicit := slices.Clone(o.GenerateLanguages)
	if !o.RedirectDefaultLang {
		explicit = slices.DeleteFunc(explicit, func(code string) bool { return code == o.DefaultLanguage })
	}

	o.GenerateLanguages = slices.Clone(o.GenerateLanguages)
	o.RequiredFilesModules = slices.Clone(o.RequiredFilesModules)
	return &Resolved{Options: o, LanguagesExplicit: explicit}, nil
}

// LangSet returns the language set the route injector works with.
func (r *Resolved) LangSet() routes.LangSet {
	return routes.LangSet{Default: r.DefaultLanguage, Explicit: slices.Clone(r.LanguagesExplicit)}
}
