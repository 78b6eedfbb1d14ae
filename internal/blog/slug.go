package blog

import (
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"
)

// slugify lowers the title to a hyphenated slug. Anything outside letters,
// digits, and separators is dropped; an empty result falls back to "post".
func slugify(title string) string {
	var builder strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastHyphen {
				builder.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(builder.String(), "-")
	if slug == "" {
		return "post"
	}
	return slug
}

// ensureUniqueSlug appends a numeric suffix until the slug collides with no
// other post. excludeID skips the post being updated.
func ensureUniqueSlug(tx *gorm.DB, baseSlug, excludeID string) (string, error) {
	slug := baseSlug
	for index := 2; ; index++ {
		query := tx.Model(&Post{}).Where("slug = ?", slug)
		if excludeID != "" {
			query = query.Where("id <> ?", excludeID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", baseSlug, index)
	}
}
