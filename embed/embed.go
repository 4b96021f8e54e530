// Package embed decides whether a video can be played through its platform's embeddable player
// and builds the embed and page URLs for it.
//
// Resolution is table driven and performs no I/O.
package embed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vidora/vidora/video"
)

// Config is the outcome of resolving a video against its platform's embed rules.
type Config struct {
	SupportsEmbed  bool   `json:"supports_embed"`
	EmbedURL       string `json:"embed_url,omitempty"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// Options tune the generated URL without affecting support.
type Options struct {
	// ParentHost is required by twitch embeds.
	ParentHost string
	// Start is an initial offset in whole seconds.
	Start int
}

type rule struct {
	// patterns are tried in order; the first capture group is the id.
	patterns []*regexp.Regexp
	embed    func(id string, opts Options) string
	page     func(id string) string
	// reason is set for platforms that never embed.
	reason string
}

func (r rule) extract(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, p := range r.patterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			for _, g := range m[1:] {
				if g != "" {
					return g, true
				}
			}
		}
	}
	return "", false
}

// Resolve is ResolveWith using default options.
func Resolve(platform video.Platform, raw string) Config {
	return ResolveWith(platform, raw, Options{})
}

// ResolveWith resolves raw, a bare id or any recognised page URL, for platform.
func ResolveWith(platform video.Platform, raw string, opts Options) Config {
	r, ok := rules[platform]
	if !ok {
		return Config{FallbackReason: fmt.Sprintf("unsupported platform %q", platform)}
	}

	if r.embed == nil {
		return Config{FallbackReason: r.reason}
	}

	id, ok := r.extract(raw)
	if !ok {
		return Config{FallbackReason: fmt.Sprintf("could not find a %s video id in %q", platform, raw)}
	}

	return Config{SupportsEmbed: true, EmbedURL: r.embed(id, opts)}
}

// PageURL returns the canonical page for the video, used as the outbound link
// when nothing else can play it. Raw values that already are URLs are kept.
func PageURL(platform video.Platform, raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	r, ok := rules[platform]
	if !ok || r.page == nil {
		return ""
	}

	id, ok := r.extract(raw)
	if !ok {
		id = raw
	}
	return r.page(id)
}

// ExtractID returns the platform id contained in raw.
func ExtractID(platform video.Platform, raw string) (string, bool) {
	r, ok := rules[platform]
	if !ok {
		return "", false
	}
	return r.extract(raw)
}
