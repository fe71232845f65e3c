package surrogate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the word lists the generator picks components from.
type Vocabulary struct {
	Superlatives        []string `yaml:"superlatives"`
	TechnicalAdjectives []string `yaml:"technical_adjectives"`
	Nouns               []string `yaml:"nouns"`
	Purposes            []string `yaml:"purposes"`
	TechnicalSpecs      []string `yaml:"technical_specs"`
	Elements            []string `yaml:"elements"`
}

// DefaultVocabulary returns a fresh copy of the built-in word lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Superlatives: []string{
			"extraordinarily", "magnificently", "tremendously", "incredibly", "absolutely",
			"phenomenally", "spectacularly", "ridiculously", "astronomically", "monumentally",
			"unbelievably", "overwhelmingly", "superlatively", "exceptionally", "remarkably",
			"astonishingly", "breathtakingly", "mind-blowingly", "jaw-droppingly", "stupendously",
			"fantastically", "marvelously", "wondrously", "sublimely", "divinely",
		},
		TechnicalAdjectives: []string{
			"quantum-encrypted", "blockchain-verified", "AI-optimized", "cloud-native", "edge-computed",
			"neural-network-enhanced", "machine-learning-powered", "deep-learning-trained",
			"algorithmically-perfected", "cryptographically-secured", "molecularly-structured",
			"atomically-precise", "nanotechnology-enabled", "bio-engineered", "cyber-enhanced",
		},
		Nouns: []string{
			"hyperlink", "connection", "pathway", "bridge", "portal", "gateway",
			"channel", "conduit", "passage", "route", "corridor", "avenue",
			"thoroughfare", "expressway", "superhighway", "information-autobahn",
			"data-pipeline", "digital-tunnel", "cyber-bridge", "web-portal",
			"internet-gateway", "network-conduit", "virtual-pathway", "electronic-boulevard",
		},
		Purposes: []string{
			"that-leads-to-your-desired-destination",
			"for-accessing-the-requested-content",
			"to-transport-you-to-the-specified-location",
			"designed-for-seamless-navigation",
			"engineered-for-optimal-user-experience",
			"crafted-with-precision-and-care",
			"built-using-cutting-edge-technology",
			"developed-with-state-of-the-art-algorithms",
			"optimized-for-maximum-performance-and-reliability",
			"authenticated-through-advanced-security-protocols",
			"validated-by-industry-leading-experts",
			"certified-for-enterprise-grade-applications",
			"tested-across-multiple-platforms-and-devices",
			"verified-through-rigorous-quality-assurance-processes",
		},
		TechnicalSpecs: []string{
			"supporting-ipv6-and-http3-protocols",
			"with-ssl-tls-encryption-and-csrf-protection",
			"featuring-advanced-load-balancing-capabilities",
			"implementing-microservices-architecture-patterns",
			"utilizing-containerized-deployment-strategies",
			"powered-by-distributed-computing-infrastructure",
			"enhanced-with-real-time-analytics-and-monitoring",
			"secured-through-multi-factor-authentication-systems",
		},
		Elements: []string{
			"quantum", "neutron", "photon", "electron", "proton", "boson", "quark",
			"plasma", "fusion", "fission", "cosmic", "stellar", "galactic", "universal",
			"dimensional", "temporal", "spatial", "digital", "binary", "hexadecimal",
		},
	}
}

// LoadVocabulary reads word lists from a YAML file. Lists missing from the
// file (or left empty) keep their built-in defaults. An empty path returns
// DefaultVocabulary.
func LoadVocabulary(path string) (Vocabulary, error) {
	def := DefaultVocabulary()
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	return v.withDefaults(def), nil
}

func (v Vocabulary) withDefaults(def Vocabulary) Vocabulary {
	fill := func(dst *[]string, src []string) {
		*dst = sanitize(*dst)
		if len(*dst) == 0 {
			*dst = src
		}
	}
	fill(&v.Superlatives, def.Superlatives)
	fill(&v.TechnicalAdjectives, def.TechnicalAdjectives)
	fill(&v.Nouns, def.Nouns)
	fill(&v.Purposes, def.Purposes)
	fill(&v.TechnicalSpecs, def.TechnicalSpecs)
	fill(&v.Elements, def.Elements)
	return v
}

// sanitize joins inner whitespace with dashes and drops blank entries.
func sanitize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if w := strings.Join(strings.Fields(s), "-"); w != "" {
			out = append(out, w)
		}
	}
	return out
}
