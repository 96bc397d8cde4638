package blog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sha1n/relic-posts/internal/domain"
	"github.com/sha1n/relic-posts/internal/locale"
)

func newTestRegistry(t *testing.T) *locale.Registry {
	t.Helper()
	registry, err := locale.NewRegistry("en", []string{"en", "es"})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return registry
}

func TestParsePost(t *testing.T) {
	src := `---
title: "  Hello  "
description: A first post
date: 2024-03-05T10:30:00Z
tags: [go, " testing ", ""]
featured: true
ogImage: /og/hello.png
---
# Heading

Body text.
`
	doc, draft, err := parsePost("2024/hello", "en", []byte(src))
	if err != nil {
		t.Fatalf("parsePost failed: %v", err)
	}
	if draft {
		t.Error("draft = true, want false")
	}
	if doc.ID != "2024/hello" || doc.Lang != "en" {
		t.Errorf("ID/Lang = %q/%q", doc.ID, doc.Lang)
	}
	if doc.Title != "Hello" {
		t.Errorf("Title = %q, want trimmed", doc.Title)
	}
	if doc.Description != "A first post" {
		t.Errorf("Description = %q", doc.Description)
	}
	if want := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC); !doc.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", doc.Date, want)
	}
	if strings.Join(doc.Tags, ",") != "go,testing" {
		t.Errorf("Tags = %v, want [go testing]", doc.Tags)
	}
	if !doc.Featured || doc.OGImage != "/og/hello.png" {
		t.Errorf("Featured/OGImage = %v/%q", doc.Featured, doc.OGImage)
	}
	if doc.Body != "# Heading\n\nBody text.\n" {
		t.Errorf("Body = %q", doc.Body)
	}
}

func TestParsePost_Draft(t *testing.T) {
	_, draft, err := parsePost("x", "en", []byte("---\ntitle: X\ndraft: true\n---\nbody"))
	if err != nil {
		t.Fatalf("parsePost failed: %v", err)
	}
	if !draft {
		t.Error("draft = false, want true")
	}
}

func TestParsePost_NoFrontMatter(t *testing.T) {
	doc, _, err := parsePost("plain", "en", []byte("Just text.\n"))
	if err != nil {
		t.Fatalf("parsePost failed: %v", err)
	}
	if doc.Body != "Just text.\n" {
		t.Errorf("Body = %q", doc.Body)
	}
	if !doc.Date.Equal(time.Unix(0, 0)) {
		t.Errorf("Date = %v, want Unix epoch", doc.Date)
	}
	if doc.Tags == nil || len(doc.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty non-nil", doc.Tags)
	}
}

func TestParsePost_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad yaml", "---\ntitle: [unclosed\n---\nbody"},
		{"bad date", "---\ntitle: X\ndate: yesterday\n---\nbody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parsePost("x", "en", []byte(tt.src)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantHeader string
		wantBody   string
	}{
		{"standard", "---\na: 1\n---\nbody\n", "a: 1\n", "body\n"},
		{"crlf", "---\r\na: 1\r\n---\r\nbody", "a: 1\r\n", "body"},
		{"bom", "\uFEFF---\na: 1\n---\nbody", "a: 1\n", "body"},
		{"closing at eof", "---\na: 1\n---", "a: 1\n", ""},
		{"empty header", "---\n---\nbody", "", "body"},
		{"no front matter", "body\n---\nmore", "", "body\n---\nmore"},
		{"unclosed", "---\na: 1\nbody", "", "---\na: 1\nbody"},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, body := splitFrontMatter([]byte(tt.src))
			if string(header) != tt.wantHeader {
				t.Errorf("header = %q, want %q", header, tt.wantHeader)
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Unix(0, 0)},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-01-02 15:04", time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)},
		{"2024-01-02T15:04:05", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"2024-01-02T15:04:05+02:00", time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if err != nil {
				t.Fatalf("parseDate failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPostID(t *testing.T) {
	tests := map[string]string{
		"hello.md":                 "hello",
		"2024/hello.mdx":           "2024/hello",
		"sourdough/index.md":       "sourdough",
		filepath.Join("a", "b.md"): "a/b",
	}
	for in, want := range tests {
		if got := PostID(in); got != want {
			t.Errorf("PostID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSortFeaturedThenRecent(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	docs := []domain.Document{
		{ID: "old", Date: day(1)},
		{ID: "featured-old", Date: day(2), Featured: true},
		{ID: "new", Date: day(9)},
		{ID: "featured-new", Date: day(5), Featured: true},
		{ID: "new-twin", Date: day(9)},
	}

	SortFeaturedThenRecent(docs)

	var got []string
	for _, d := range docs {
		got = append(got, d.ID)
	}
	want := "featured-new,featured-old,new,new-twin,old"
	if strings.Join(got, ",") != want {
		t.Errorf("order = %v, want %s", got, want)
	}
}

func TestContentLoader_Load(t *testing.T) {
	dir := t.TempDir()
	seedContent(t, dir)
	loader := NewContentLoader(dir, newTestRegistry(t), nil)

	docs, err := loader.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID)
		if d.Lang != "en" {
			t.Errorf("%s Lang = %q, want en", d.ID, d.Lang)
		}
	}
	want := "sourdough,goroutines,worker-pools"
	if strings.Join(ids, ",") != want {
		t.Errorf("ids = %v, want %s (featured first, drafts and partials skipped)", ids, want)
	}
}

func TestContentLoader_LoadSecondaryLanguage(t *testing.T) {
	dir := t.TempDir()
	seedContent(t, dir)
	loader := NewContentLoader(dir, newTestRegistry(t), nil)

	if got := loader.CollectionDir("es"); got != filepath.Join(dir, "es", "posts") {
		t.Errorf("CollectionDir(es) = %q", got)
	}

	docs, err := loader.Load(context.Background(), "es")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "hola" || docs[0].Lang != "es" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestContentLoader_MissingCollection(t *testing.T) {
	loader := NewContentLoader(t.TempDir(), newTestRegistry(t), nil)

	docs, err := loader.Load(context.Background(), "es")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("docs = %#v, want empty non-nil", docs)
	}
}

func TestContentLoader_UnsupportedLanguage(t *testing.T) {
	loader := NewContentLoader(t.TempDir(), newTestRegistry(t), nil)

	_, err := loader.Load(context.Background(), "de")
	if !domain.IsCode(err, domain.CodeNotFound) {
		t.Errorf("error = %v, want %s", err, domain.CodeNotFound)
	}
}

func TestContentLoader_SkipsInvalidPosts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts/good.md", "---\ntitle: Good\ndate: 2024-01-01\n---\nok")
	writeFile(t, dir, "posts/bad.md", "---\ntitle: Bad\ndate: someday\n---\nbroken")
	loader := NewContentLoader(dir, newTestRegistry(t), nil)

	docs, err := loader.Load(context.Background(), "en")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "good" {
		t.Errorf("docs = %+v, want only good", docs)
	}
}

func TestContentLoader_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	seedContent(t, dir)
	loader := NewContentLoader(dir, newTestRegistry(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.Load(ctx, "en"); err == nil {
		t.Error("Expected error for canceled context")
	}
}
