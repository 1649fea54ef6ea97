// Package video turns raw video rows into embeddable URLs for the hero
// background and the "watch our story" modal.
package video

import (
	"regexp"
	"strings"

	"ocakbasi/pkg/domain"
)

type Role int

const (
	RoleBackground Role = iota
	RoleModal
)

const (
	FallbackBackgroundURL = "/videos/ocakbasi-hero.mp4"
	FallbackModalURL      = "/videos/ocakbasi-story.mp4"
)

var youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?|shorts)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// IsYouTube reports whether raw references the YouTube service.
func IsYouTube(raw string) bool {
	return strings.Contains(raw, "youtube.com") || strings.Contains(raw, "youtu.be")
}

// ExtractID returns the 11-character video id, or "" when none is present.
func ExtractID(raw string) string {
	m := youtubeIDPattern.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// EmbedURL rebuilds YouTube URLs into their embeddable form for role.
// Other URLs are returned verbatim. A YouTube URL without an extractable id
// yields an embed URL with an empty id.
func EmbedURL(raw string, role Role) string {
	if !IsYouTube(raw) {
		return raw
	}
	id := ExtractID(raw)
	if role == RoleBackground {
		return "https://www.youtube.com/embed/" + id +
			"?autoplay=1&mute=1&loop=1&playlist=" + id +
			"&controls=0&showinfo=0&rel=0&modestbranding=1&playsinline=1"
	}
	return "https://www.youtube.com/embed/" + id + "?autoplay=1&controls=1&rel=0&modestbranding=1"
}

// Resolve picks the background and modal videos from rows. The first row flagged
// for a role wins; without a modal-flagged row the first row is used. With no rows
// both roles get the static fallback.
func Resolve(rows []domain.Video) domain.VideoSet {
	if len(rows) == 0 {
		return Fallback()
	}
	set := domain.VideoSet{Background: FallbackBackgroundURL}
	for _, row := range rows {
		if row.IsBackground {
			set.Background = EmbedURL(row.URL, RoleBackground)
			break
		}
	}
	modal := rows[0]
	for _, row := range rows {
		if row.IsModal {
			modal = row
			break
		}
	}
	set.Modal = EmbedURL(modal.URL, RoleModal)
	return set
}

// Fallback returns the built-in video set.
func Fallback() domain.VideoSet {
	return domain.VideoSet{Background: FallbackBackgroundURL, Modal: FallbackModalURL}
}
