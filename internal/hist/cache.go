package hist

import "sync"

// SourceCache memoizes loaded histogram files by path. The grid workers all
// read from the same inputs, so a run loads each file once regardless of
// worker count. Loaded files are read-only; concurrent readers need no
// further locking.
type SourceCache struct {
	mu    sync.Mutex
	files map[string]*File
}

func NewSourceCache() *SourceCache {
	return &SourceCache{files: make(map[string]*File)}
}

func (c *SourceCache) Load(path string) (*File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.files[path]; ok {
		return f, nil
	}
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	c.files[path] = f
	return f, nil
}
