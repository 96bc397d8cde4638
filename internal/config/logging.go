package config

import (
	"context"
	"log/slog"
	"net/url"
)

const masked = "****"

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport == "sse" {
		logger.InfoContext(ctx, "Config: host", "value", s.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Port)
	}

	logger.InfoContext(ctx, "Config: auth", "value", s.Auth)

	logger.InfoContext(ctx, "Config: content", "dir", s.Content.Dir, "default_lang", s.Content.DefaultLang, "langs", s.Content.Langs)
	logger.InfoContext(ctx, "Config: output", "dir", s.Output.Dir, "work_dir", s.Output.WorkDir)
	if s.Search.SourceURL != "" {
		logger.InfoContext(ctx, "Config: search.source_url", "value", redactURL(s.Search.SourceURL))
	}
	logger.InfoContext(ctx, "Config: search", "fetch_timeout", s.Search.FetchTimeout, "max_results", s.Search.MaxResults)
	logger.InfoContext(ctx, "Config: related", "tag_boost", s.Related.TagBoost, "half_life_days", s.Related.HalfLifeDays, "limit", s.Related.Limit)
	logger.InfoContext(ctx, "Config: build.lock_timeout", "value", s.Build.LockTimeout)
}

// LogValue implements slog.LogValuer. Only the settings of the active auth type are included.
func (s AuthSettings) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", s.Type)}
	switch s.Type {
	case AuthTypeBasic:
		attrs = append(attrs, slog.Any("basic", s.Basic))
	case AuthTypeAPIKey:
		attrs = append(attrs, slog.Int("api_keys", len(s.APIKeys)))
	}
	return slog.GroupValue(attrs...)
}

// LogValue implements slog.LogValuer with the password masked.
func (s BasicAuthSettings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", s.Username),
		slog.String("password", masked),
	)
}

// LogValue implements slog.LogValuer with secrets masked.
func (s Settings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.Any("auth", s.Auth),
		slog.Group("content",
			slog.String("dir", s.Content.Dir),
			slog.String("default_lang", s.Content.DefaultLang),
			slog.Any("langs", s.Content.Langs),
		),
		slog.String("output_dir", s.Output.Dir),
		slog.String("search_source_url", redactURL(s.Search.SourceURL)),
	)
}

// redactURL masks any password embedded in a URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		// An unparseable URL may still carry credentials.
		return masked
	}
	return u.Redacted()
}
