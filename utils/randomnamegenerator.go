package utils

import (
	"math/rand"
	"strings"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out unique ascii names. The sequence is
// deterministic for a given seed.
type RandomNameGenerator struct {
	used map[string]struct{}
}

func NewRandomNameGenerator(seed int64) *RandomNameGenerator {
	randomdata.CustomRand(rand.New(rand.NewSource(seed)))
	return &RandomNameGenerator{used: make(map[string]struct{})}
}

func (rng *RandomNameGenerator) RandomName() string {
	for {
		name := randomdata.SillyName()
		// avoid duplicate names
		if _, exists := rng.used[name]; !exists {
			rng.used[name] = struct{}{}
			return name
		}
	}
}

// RandomBoneName produces names shaped like skeleton joints, e.g. "bip01_spine_Kiteowl".
func (rng *RandomNameGenerator) RandomBoneName(prefix string) string {
	return prefix + "_" + strings.ToLower(randomdata.Noun()) + "_" + rng.RandomName()
}
