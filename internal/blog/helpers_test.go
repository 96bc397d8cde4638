package blog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sha1n/relic-posts/internal/config"
)

// writeFile writes content to dir/rel, creating parent directories.
func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

// newTestSettings returns valid settings rooted in temp dirs with English
// as the default language and Spanish as a second one.
func newTestSettings(t *testing.T) *config.Settings {
	t.Helper()
	root := t.TempDir()
	return &config.Settings{
		Transport: "stdio",
		Auth:      config.AuthSettings{Type: config.AuthTypeNone},
		Content: config.ContentSettings{
			Dir:         filepath.Join(root, "content"),
			DefaultLang: "en",
			Langs:       []string{"en", "es"},
		},
		Output: config.OutputSettings{
			Dir:     filepath.Join(root, "dist"),
			WorkDir: filepath.Join(root, "work"),
		},
		Search:  config.SearchSettings{FetchTimeout: 5 * time.Second, MaxResults: 10},
		Related: config.RelatedSettings{TagBoost: 0.12, HalfLifeDays: 180, Limit: 3},
		Build:   config.BuildSettings{LockTimeout: 2 * time.Second},
	}
}

// seedContent writes a small bilingual blog.
func seedContent(t *testing.T, contentDir string) {
	t.Helper()
	writeFile(t, contentDir, "posts/goroutines.md", `---
title: Goroutines and channels
description: Structured concurrency in Go
date: 2024-05-01
tags: [go, concurrency]
---
Goroutines communicate over channels. Channels synchronize goroutines and
make concurrency in Go approachable.
`)
	writeFile(t, contentDir, "posts/worker-pools.md", `---
title: Worker pools
date: 2024-04-01
tags: [go]
---
A worker pool bounds goroutines. Jobs flow through channels to goroutines.
`)
	writeFile(t, contentDir, "posts/sourdough/index.md", `---
title: Sourdough bread
date: 2023-01-01
tags: [baking]
featured: true
---
Feed the starter, fold the dough, bake the bread.
`)
	writeFile(t, contentDir, "posts/unfinished.md", `---
title: Unfinished thoughts
date: 2024-06-01
draft: true
---
Not ready.
`)
	writeFile(t, contentDir, "posts/_partial.md", "Shared snippet.\n")
	writeFile(t, contentDir, "posts/notes.txt", "Not a post.\n")
	writeFile(t, contentDir, "es/posts/hola.md", `---
title: Hola mundo
date: 2024-02-01
tags: [intro]
---
Primer articulo del blog.
`)
}
