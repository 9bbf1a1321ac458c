package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/agora-forum/agora/shared/errors"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	maxTitleLength   = 255
	maxContentLength = 20_000
	suffixLength     = 6

	// Slug widths match the threads.slug and subforums.slug columns.
	MaxThreadSlugLength   = 300
	MaxSubforumSlugLength = 128

	// fallbackSlug is used when a title has no sluggable characters.
	fallbackSlug = "thread"
)

type ThreadTitleValidator struct{}

func (e *ThreadTitleValidator) Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.BadRequest("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return errors.BadRequest("Title is too long")
	}
	return nil
}

type PostContentValidator struct{}

func (e *PostContentValidator) Content(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.BadRequest("Content is too short")
	}
	if utf8.RuneCountInString(text) > maxContentLength {
		return errors.BadRequest("Content is too long")
	}
	return nil
}

// Slugger turns titles into URL slugs and, for retries after a collision,
// into suffixed variants. No slug it produces is longer than maxLen bytes.
type Slugger struct {
	suffix func() string
	maxLen int
}

// NewSlugger uses suffix for collision retries; nil means a short uuid prefix.
func NewSlugger(suffix func() string, maxLen int) *Slugger {
	if suffix == nil {
		suffix = func() string { return ShortCode(suffixLength) }
	}
	return &Slugger{suffix: suffix, maxLen: maxLen}
}

// Slug returns the base slug for title.
func (s *Slugger) Slug(title string) string {
	return truncateSlug(s.base(title), s.maxLen)
}

// Candidates returns the slug to try on each attempt: the base slug first,
// then base-<suffix> with a fresh suffix every time.
func (s *Slugger) Candidates(title string) func(attempt int) string {
	base := s.base(title)
	return func(attempt int) string {
		if attempt == 0 {
			return truncateSlug(base, s.maxLen)
		}
		suffix := s.suffix()
		return truncateSlug(base, s.maxLen-len(suffix)-1) + "-" + suffix
	}
}

func (s *Slugger) base(title string) string {
	base := slug.Make(title)
	if base == "" {
		return fallbackSlug
	}
	return base
}

// truncateSlug cuts s to at most n bytes, preferring a word boundary.
func truncateSlug(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	s = s[:cut]
	if i := strings.LastIndexByte(s, '-'); i > cut/2 {
		s = s[:i]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return fallbackSlug[:min(len(fallbackSlug), n)]
	}
	return s
}

// ShortCode returns the first n characters of a random uuid.
func ShortCode(n int) string {
	code := strings.ReplaceAll(uuid.NewString(), "-", "")
	return code[:n]
}
