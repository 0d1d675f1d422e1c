package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// StaticGenerateDefaultApplier handles static_generate defaults.
type StaticGenerateDefaultApplier struct{}

func (s *StaticGenerateDefaultApplier) Domain() string { return "static_generate" }

func (s *StaticGenerateDefaultApplier) ApplyDefaults(cfg *Config) error {
	sg := &cfg.StaticGenerate
	// An absent list means the single-language site; an explicit empty list is left for validation.
	if sg.GenerateLanguages == nil {
		sg.GenerateLanguages = []string{"ru"}
	}
	if sg.DefaultLanguage == "" && len(sg.GenerateLanguages) > 0 {
		sg.DefaultLanguage = sg.GenerateLanguages[0]
	}
	if sg.RedirectDefaultLang == nil {
		sg.RedirectDefaultLang = boolPtr(true)
	}
	return nil
}

// ExportDefaultApplier handles export pipeline defaults.
type ExportDefaultApplier struct{}

func (e *ExportDefaultApplier) Domain() string { return "export" }

func (e *ExportDefaultApplier) ApplyDefaults(cfg *Config) error {
	ex := &cfg.Export
	if ex.OutputDir == "" {
		ex.OutputDir = "dist"
	}
	if ex.StagingDir == "" {
		ex.StagingDir = DefaultStagingDir(ex.OutputDir)
	}
	if ex.AssetsDir == "" {
		ex.AssetsDir = "_assets"
	}
	if ex.FallbackFile == "" {
		ex.FallbackFile = "200.html"
	}
	if ex.FallbackRoute == "" {
		ex.FallbackRoute = "/"
	}
	if ex.Concurrency == 0 {
		ex.Concurrency = 4
	}
	if ex.Clean == nil {
		ex.Clean = boolPtr(true)
	}
	if ex.Subfolders == nil {
		ex.Subfolders = boolPtr(true)
	}
	if ex.WritePayloads == nil {
		ex.WritePayloads = boolPtr(true)
	}
	if ex.Report == nil {
		ex.Report = boolPtr(true)
	}
	return nil
}

// RenderDefaultApplier handles renderer defaults.
type RenderDefaultApplier struct{}

func (r *RenderDefaultApplier) Domain() string { return "render" }

func (r *RenderDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Render.BaseURL == "" {
		cfg.Render.BaseURL = "http://localhost:3000"
	}
	if cfg.Render.Timeout == "" {
		cfg.Render.Timeout = "30s"
	}
	if cfg.Render.SetHTMLLang == nil {
		cfg.Render.SetHTMLLang = boolPtr(true)
	}
	if cfg.Render.RetryBackoff == "" {
		cfg.Render.RetryBackoff = RetryBackoffLinear
	}
	return nil
}

// OutputSurfacesDefaultApplier handles defaults of the optional surfaces around an export:
// sitemap, notifications, watch and serve.
type OutputSurfacesDefaultApplier struct{}

func (o *OutputSurfacesDefaultApplier) Domain() string { return "surfaces" }

func (o *OutputSurfacesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Sitemap.Enabled == nil {
		cfg.Sitemap.Enabled = boolPtr(true)
	}
	if cfg.Sitemap.File == "" {
		cfg.Sitemap.File = "sitemap.xml"
	}
	if cfg.Sitemap.Host == "" {
		cfg.Sitemap.Host = cfg.Render.BaseURL
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "langexport.export"
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "2s"
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = ":8080"
	}
	return nil
}

// CompositeDefaultApplier runs the domain appliers in order.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates the applier used by Load. Render defaults run before the
// surfaces applier because the sitemap host falls back to the render base URL.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&StaticGenerateDefaultApplier{},
			&ExportDefaultApplier{},
			&RenderDefaultApplier{},
			&OutputSurfacesDefaultApplier{},
		},
	}
}

func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
