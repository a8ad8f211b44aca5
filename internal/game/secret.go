// internal/game/secret.go
//
// Secret pattern generation.
//   - RandomSecrets: independent uniform digits from crypto/rand.
//   - FixedSecret:   a preset pattern for tests and fixed-answer games.
//
// Repeated digits are allowed. A failing entropy source is logged and
// the digit is drawn from math/rand instead.

package game

import (
	"crypto/rand"
	"io"
	"math/big"
	mrand "math/rand/v2"

	"github.com/rs/zerolog/log"
)

// SecretGenerator produces the hidden pattern for a new round.
type SecretGenerator interface {
	Generate(n int) []int
}

// RandomSecrets draws each digit independently and uniformly from 0–9.
// Source defaults to crypto/rand.Reader.
type RandomSecrets struct {
	Source io.Reader
}

func (r RandomSecrets) Generate(n int) []int {
	src := r.Source
	if src == nil {
		src = rand.Reader
	}
	out := make([]int, n)
	for i := range out {
		d, err := rand.Int(src, big.NewInt(10))
		if err != nil {
			log.Error().Err(err).Msg("secret digit: entropy source failed, using math/rand")
			out[i] = mrand.IntN(10)
			continue
		}
		out[i] = int(d.Int64())
	}
	return out
}

// FixedSecret always returns the same pattern.
type FixedSecret []int

func (f FixedSecret) Generate(n int) []int {
	out := make([]int, n)
	copy(out, f)
	return out
}
