package video

import (
	"strings"
	"testing"

	"ocakbasi/pkg/domain"
)

func TestEmbedURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		role     Role
		contains []string
		exact    string
	}{
		{
			name:     "watch url background",
			raw:      "https://www.youtube.com/watch?v=abcDEF12345",
			role:     RoleBackground,
			contains: []string{"/embed/abcDEF12345?", "mute=1", "loop=1", "playlist=abcDEF12345", "controls=0"},
		},
		{
			name:     "short link modal",
			raw:      "https://youtu.be/abcDEF12345",
			role:     RoleModal,
			contains: []string{"/embed/abcDEF12345?", "autoplay=1", "controls=1"},
		},
		{
			name:     "embed url with extra params",
			raw:      "https://www.youtube.com/embed/abcDEF12345?start=10",
			role:     RoleModal,
			contains: []string{"/embed/abcDEF12345?"},
		},
		{
			name:  "non youtube passes through",
			raw:   "https://cdn.example.com/hero.mp4",
			role:  RoleBackground,
			exact: "https://cdn.example.com/hero.mp4",
		},
		{
			name:     "malformed youtube url yields empty id",
			raw:      "https://www.youtube.com/channel",
			role:     RoleModal,
			contains: []string{"https://www.youtube.com/embed/?autoplay=1"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EmbedURL(tc.raw, tc.role)
			if tc.exact != "" && got != tc.exact {
				t.Fatalf("EmbedURL = %q, want %q", got, tc.exact)
			}
			for _, part := range tc.contains {
				if !strings.Contains(got, part) {
					t.Fatalf("EmbedURL = %q, missing %q", got, part)
				}
			}
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("no rows uses fallback", func(t *testing.T) {
		if got := Resolve(nil); got != Fallback() {
			t.Fatalf("Resolve(nil) = %+v, want fallback", got)
		}
	})

	t.Run("first row becomes modal when none flagged", func(t *testing.T) {
		got := Resolve([]domain.Video{
			{ID: "1", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", IsBackground: true},
			{ID: "2", URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb"},
		})
		if !strings.Contains(got.Background, "aaaaaaaaaaa") || !strings.Contains(got.Background, "mute=1") {
			t.Fatalf("unexpected background: %q", got.Background)
		}
		if !strings.Contains(got.Modal, "/embed/aaaaaaaaaaa?") || !strings.Contains(got.Modal, "controls=1") {
			t.Fatalf("unexpected modal: %q", got.Modal)
		}
	})

	t.Run("roles resolved independently first match wins", func(t *testing.T) {
		got := Resolve([]domain.Video{
			{ID: "1", URL: "/local/bg.mp4", IsBackground: true},
			{ID: "2", URL: "https://youtu.be/ccccccccccc", IsModal: true},
			{ID: "3", URL: "https://youtu.be/ddddddddddd", IsModal: true},
		})
		if got.Background != "/local/bg.mp4" {
			t.Fatalf("background = %q", got.Background)
		}
		if !strings.Contains(got.Modal, "ccccccccccc") {
			t.Fatalf("modal = %q", got.Modal)
		}
	})

	t.Run("no background flag keeps fallback background", func(t *testing.T) {
		got := Resolve([]domain.Video{{ID: "1", URL: "/story.mp4", IsModal: true}})
		if got.Background != FallbackBackgroundURL || got.Modal != "/story.mp4" {
			t.Fatalf("unexpected set: %+v", got)
		}
	})
}
