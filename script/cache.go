package script

import (
	"crypto/sha1"
	"fmt"
	"sync"
)

// cache is the SHA1-keyed write-through script store (spec.md §4.3 "script
// cache"). Scripts are stored as source text and parsed fresh by gopher-lua
// on every Eval, matching the teacher engine's stateless-VM-per-call model.
type cache struct {
	scripts sync.Map // sha1 hex -> script source
}

func newCache() *cache { return &cache{} }

// store hashes body, saves it, and returns its lowercase hex SHA1.
func (c *cache) store(body string) string {
	sha := hashScript(body)
	c.scripts.Store(sha, body)
	return sha
}

func (c *cache) load(sha string) (string, bool) {
	v, ok := c.scripts.Load(sha)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (c *cache) exists(hashes []string) []bool {
	out := make([]bool, len(hashes))
	for i, h := range hashes {
		_, out[i] = c.scripts.Load(h)
	}
	return out
}

func (c *cache) flush() {
	c.scripts.Range(func(k, _ interface{}) bool {
		c.scripts.Delete(k)
		return true
	})
}

func hashScript(body string) string {
	return fmt.Sprintf("%x", sha1.Sum([]byte(body)))
}
