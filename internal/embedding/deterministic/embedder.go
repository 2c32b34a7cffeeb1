// Package deterministic provides a hash-based embedding.Client with no
// external dependency, for tests and offline demos. Adapted from the
// teacher's byte-trigram hashing embedder.
package deterministic

import (
	"context"
	"hash/fnv"
	"math"
)

// Client hashes byte 3-grams into a fixed-size vector and, when Normalize
// is set, L2-normalizes the result. It is deterministic across calls and
// processes, which makes retrieval tests reproducible without a real
// embedding backend.
type Client struct {
	dim       int
	normalize bool
	seed      uint64
}

// New constructs a deterministic embedder with the given dimension. If dim
// is non-positive, it defaults to 64.
func New(dim int, normalize bool, seed uint64) *Client {
	if dim <= 0 {
		dim = 64
	}
	return &Client{dim: dim, normalize: normalize, seed: seed}
}

func (c *Client) Dimension() int { return c.dim }

func (c *Client) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return c.embedOne(text), nil
}

func (c *Client) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = c.embedOne(t)
	}
	return out, nil
}

func (c *Client) embedOne(s string) []float32 {
	v := make([]float32, c.dim)
	b := []byte(s)
	if len(b) == 0 {
		return v
	}
	if len(b) < 3 {
		c.add(b, v)
	} else {
		for i := 0; i <= len(b)-3; i++ {
			c.add(b[i:i+3], v)
		}
	}
	if c.normalize {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		if sum > 0 {
			inv := float32(1.0 / math.Sqrt(sum))
			for i := range v {
				v[i] *= inv
			}
		}
	}
	return v
}

func (c *Client) add(gram []byte, v []float32) {
	h := fnv.New64a()
	if c.seed != 0 {
		var tmp [8]byte
		for i := 0; i < 8; i++ {
			tmp[i] = byte(c.seed >> (8 * i))
		}
		_, _ = h.Write(tmp[:])
	}
	_, _ = h.Write(gram)
	hv := h.Sum64()
	idx := int(hv % uint64(len(v)))
	w := float32(int32(hv>>32)) / float32(1<<31)
	v[idx] += w
}
