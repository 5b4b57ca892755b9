package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pso/common"
	"github.com/cogentcore/webgpu/wgpu"
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultSamplerCacheSize is the number of distinct samplers kept alive by a renderer.
const defaultSamplerCacheSize = 16

// samplerLabel is the label of every cached sampler; equal SamplerInfo values must map to equal descriptors.
const samplerLabel = "oxy-pso sampler"

// samplerCache deduplicates GPU samplers by descriptor. Evicted samplers are released, so a sampler handed out by
// the cache is only valid while it stays cached or until the bind groups using it are rebuilt.
type samplerCache struct {
	mu     sync.Mutex
	cache  *lru.Cache[wgpu.SamplerDescriptor, *wgpu.Sampler]
	create func(wgpu.SamplerDescriptor) (*wgpu.Sampler, error)
}

func newSamplerCache(size int, create func(wgpu.SamplerDescriptor) (*wgpu.Sampler, error), release func(*wgpu.Sampler)) (*samplerCache, error) {
	cache, err := lru.NewWithEvict(size, func(_ wgpu.SamplerDescriptor, s *wgpu.Sampler) {
		if s != nil && release != nil {
			release(s)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler cache: %w", err)
	}
	return &samplerCache{cache: cache, create: create}, nil
}

// Get returns the sampler for info, creating it on a miss.
func (c *samplerCache) Get(info common.SamplerInfo) (*wgpu.Sampler, error) {
	desc := info.Descriptor(samplerLabel)

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.cache.Get(desc); ok {
		return s, nil
	}
	s, err := c.create(desc)
	if err != nil {
		return nil, err
	}
	c.cache.Add(desc, s)
	return s, nil
}

func (c *samplerCache) Len() int {
	return c.cache.Len()
}

// Purge releases every cached sampler.
func (c *samplerCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}
