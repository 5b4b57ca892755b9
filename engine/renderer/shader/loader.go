package shader

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Source names a WGSL shader to load. Exactly one of Path or Code is set.
type Source struct {
	// Key is the unique identifier of the shader.
	Key string

	// Type is the stage the shader is compiled for.
	Type ShaderType

	// Path is a WGSL file on disk.
	Path string

	// Code is WGSL source held in memory.
	Code string
}

// LoadShaders pre-processes and reflects several shaders concurrently on a worker pool.
// Shaders are returned in the order of their sources. When a source fails, the error of the
// earliest failing source is returned and the shaders are discarded.
//
// Parameters:
//   - ctx: cancels the load; sources not yet started are skipped
//   - sources: the shaders to load
//
// Returns:
//   - []Shader: the loaded shaders, index-aligned with sources
//   - error: the first failure in source order, or the context error
func LoadShaders(ctx context.Context, sources ...Source) ([]Shader, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shaders := make([]Shader, len(sources))
	errs := make([]error, len(sources))

	pool := worker.NewDynamicWorkerPool(min(len(sources), runtime.NumCPU()), 256, 1*time.Second)
	defer pool.Stop()
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		idx := i
		s := src
		pool.SubmitTask(worker.Task{
			ID:      idx,
			Payload: s.Key,
			Do: func() (any, error) {
				defer wg.Done()
				if err := ctx.Err(); err != nil {
					errs[idx] = err
					return nil, err
				}
				shaders[idx], errs[idx] = loadSource(s)
				return shaders[idx], errs[idx]
			},
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return shaders, nil
}

func loadSource(src Source) (Shader, error) {
	switch {
	case src.Path != "" && src.Code != "":
		return nil, fmt.Errorf("shader %s: both a path and inline code were given", src.Key)
	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", src.Key, src.Path, err)
		}
		return ParseShader(src.Key, src.Type, string(data))
	case src.Code != "":
		return ParseShader(src.Key, src.Type, src.Code)
	default:
		return nil, fmt.Errorf("shader %s: no source given", src.Key)
	}
}
