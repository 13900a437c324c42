package domain

import "strings"

type Review struct {
	ID        int64  `db:"id" json:"id"`
	UserID    int64  `db:"user_id" json:"userId"`
	BookTitle string `db:"book_title" json:"book_title"`
	Rating    int    `db:"rating" json:"rating"`
	Body      string `db:"review" json:"review"`
	Mood      string `db:"mood" json:"mood"`
	CreatedAt string `db:"created_at" json:"created_at"`
	User      Author `db:"user" json:"user"`
}

// Moods lists the canonical mood tags in display order.
var Moods = []string{"happy", "sad", "excited", "tired", "angry"}

// moodAliases maps the Spanish tags the web client posts.
var moodAliases = map[string]string{
	"feliz":      "happy",
	"triste":     "sad",
	"emocionado": "excited",
	"cansado":    "tired",
	"enojado":    "angry",
}

// NormalizeMood trims and lower-cases s.
func NormalizeMood(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CanonicalMood returns the canonical tag for s and whether s is a known mood.
func CanonicalMood(s string) (string, bool) {
	s = NormalizeMood(s)
	for _, m := range Moods {
		if m == s {
			return m, true
		}
	}
	m, ok := moodAliases[s]
	return m, ok
}
