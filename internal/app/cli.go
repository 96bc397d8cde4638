package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")

	flags.StringP("content-dir", "c", "", "Content root directory")
	flags.String("default-lang", "", "Default language code")
	flags.StringSlice("langs", nil, "Supported language codes (comma-separated)")
	flags.StringP("output-dir", "o", "", "Directory artifacts are written to and served from")
	flags.String("work-dir", "", "Scratch directory for unpacked search indexes")
	flags.String("search-source-url", "", "Base URL to fetch artifacts from instead of the output directory")
	flags.Duration("search-fetch-timeout", 0, "Timeout for fetching and opening an artifact")
	flags.Int("search-max-results", 0, "Default number of search results")
	flags.Float64("related-tag-boost", 0, "Score added per shared tag (capped at 1)")
	flags.Float64("related-half-life-days", 0, "Recency decay constant in days")
	flags.Int("related-limit", 0, "Default number of related posts")
	flags.Duration("build-lock-timeout", 0, "How long a build waits for the build lock")
}
