// Package citation validates legal citations in two independent phases: a
// confidence/attribution check, then cryptographic-hash membership against
// a trusted set. Confidence alone never makes a citation usable once a
// hash check is available.
package citation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/lexfoundry/draftgate/internal/model"
)

// minConfidence below which an unattributed citation is flagged.
const minConfidence = 0.75

// Discard reasons for the hash phase.
const (
	ReasonNoHash        = "no_hash"
	ReasonHashNotListed = "hash_not_in_verified_db"
)

// Discard is one citation removed by the hash phase, with the reason.
type Discard struct {
	Citation model.Citation `json:"citation"`
	Reason   string         `json:"reason"`
}

// Result is the combined gate output. Passed requires both phases; an
// empty citation list trivially passes.
type Result struct {
	Passed           bool             `json:"passed"`
	ConfidencePassed bool             `json:"confidencePassed"`
	HashPassed       bool             `json:"hashPassed"`
	LowConfidence    []model.Citation `json:"lowConfidence,omitempty"`
	Verified         []model.Citation `json:"verified,omitempty"`
	Discarded        []Discard        `json:"discarded,omitempty"`
}

// HashOf computes the verification digest of a citation text. The same
// digest scheme builds the trusted set on the persistence side.
func HashOf(text string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(h[:])
}

// Validate runs both phases over the citations. verifiedHashes is the
// externally supplied trusted set.
func Validate(citations []model.Citation, verifiedHashes map[string]struct{}) Result {
	res := Result{ConfidencePassed: true, HashPassed: true}

	for _, c := range citations {
		if c.Confidence < minConfidence && strings.TrimSpace(c.SourceDocID) == "" {
			res.LowConfidence = append(res.LowConfidence, c)
			res.ConfidencePassed = false
		}
	}

	for _, c := range citations {
		hash := strings.TrimSpace(c.VerificationHash)
		if hash == "" {
			res.Discarded = append(res.Discarded, Discard{Citation: c, Reason: ReasonNoHash})
			res.HashPassed = false
			continue
		}
		if _, ok := verifiedHashes[hash]; !ok {
			res.Discarded = append(res.Discarded, Discard{Citation: c, Reason: ReasonHashNotListed})
			res.HashPassed = false
			continue
		}
		res.Verified = append(res.Verified, c)
	}

	res.Passed = res.ConfidencePassed && res.HashPassed
	return res
}
