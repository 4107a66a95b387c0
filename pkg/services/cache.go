package services

import (
	"sort"
	"strings"
	"sync"

	"blog-admin/pkg/models"
)

// TagCache remembers tag names seen in backend responses so the editor can
// suggest them. It is shared by every session of the process.
type TagCache struct {
	mu     sync.Mutex
	counts map[string]int
	seeded []string
}

// NewTagCache starts a cache primed with configured tags.
func NewTagCache(seed ...string) *TagCache {
	c := &TagCache{seeded: models.CleanTags(seed)}
	c.reset()
	return c
}

func (c *TagCache) reset() {
	c.counts = make(map[string]int, len(c.seeded))
	for _, tag := range c.seeded {
		c.counts[tag] = 0
	}
}

// Observe records the tags of each article.
func (c *TagCache) Observe(articles ...models.Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range articles {
		for _, t := range a.Tags {
			name := strings.TrimSpace(t.Name)
			if name == "" {
				continue
			}
			c.counts[name]++
		}
	}
}

// Suggest returns up to limit tags starting with prefix (case-insensitive),
// most frequently seen first. limit <= 0 means no limit.
func (c *TagCache) Suggest(prefix string, limit int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	out := make([]string, 0, len(c.counts))
	for name := range c.counts {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := c.counts[out[i]], c.counts[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Invalidate drops everything learned so far, keeping the seed tags.
func (c *TagCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}
