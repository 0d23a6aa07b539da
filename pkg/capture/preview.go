package capture

import (
	"sync"

	"github.com/google/uuid"
)

// PreviewRef is an opaque, locally-resolvable handle to image bytes used
// for on-screen display during an attempt
type PreviewRef struct {
	ID string
}

// PreviewRegistry owns the bytes behind preview references. Releasing a
// reference is always explicit — a supersede or reset action — never a
// side effect of a screen being torn down, so the image stays resolvable
// across the processing-to-result transition.
type PreviewRegistry struct {
	mu   sync.Mutex
	refs map[string][]byte
}

// NewPreviewRegistry creates an empty registry
func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{refs: make(map[string][]byte)}
}

// Create registers the image bytes and returns a new reference
func (p *PreviewRegistry) Create(data []byte) *PreviewRef {
	ref := &PreviewRef{ID: uuid.NewString()}

	p.mu.Lock()
	p.refs[ref.ID] = data
	p.mu.Unlock()

	return ref
}

// Resolve returns the bytes behind a reference, if still live
func (p *PreviewRegistry) Resolve(id string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.refs[id]
	return data, ok
}

// Release frees a reference; resolving it afterwards fails
func (p *PreviewRegistry) Release(id string) {
	p.mu.Lock()
	delete(p.refs, id)
	p.mu.Unlock()
}

// Len returns the number of live references
func (p *PreviewRegistry) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.refs)
}
