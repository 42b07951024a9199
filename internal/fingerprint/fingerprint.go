// Package fingerprint derives the identity of a canonical posting: a content
// hash used as the upsert key and a human-readable unique slug.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"jobmate/listings-service/internal/model"
)

const (
	maxSlugBase   = 80
	hashSuffixLen = 8
)

// Hash returns the hex SHA-256 of title|company|applyURL. Title and company
// are compared case- and whitespace-insensitively; applyURL is expected to be
// normalized already.
func Hash(title, company, applyURL string) string {
	sum := sha256.Sum256([]byte(canon(title) + "|" + canon(company) + "|" + applyURL))
	return hex.EncodeToString(sum[:])
}

// Slugify lower-cases s, spells out "&" as a separate word ("R&D" becomes
// "r-and-d"), collapses every run of non-alphanumeric characters to one
// hyphen, trims hyphens and truncates to 80 characters.
func Slugify(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	out := b.String()
	if len(out) > maxSlugBase {
		out = out[:maxSlugBase]
	}
	return out
}

// Slug builds the unique slug for a posting from its descriptive fields and
// the first 8 hex characters of its hash.
func Slug(title, company, location, hash string) string {
	suffix := hash
	if len(suffix) > hashSuffixLen {
		suffix = suffix[:hashSuffixLen]
	}
	return Slugify(title+"-"+company+"-"+location) + "-" + suffix
}

// Apply stamps Hash and Slug on job from its current fields.
func Apply(job *model.Job) {
	job.Hash = Hash(job.Title, job.Company.Name, job.ApplyURL)
	job.Slug = Slug(job.Title, job.Company.Name, job.Location, job.Hash)
}

func canon(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
