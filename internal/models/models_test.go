package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func tracks(ids ...string) []Track {
	out := make([]Track, len(ids))
	for i, id := range ids {
		out[i] = Track{ID: id, Name: "Song " + id, URI: "spotify:track:" + id}
	}
	return out
}

func trackIDs(ts []Track) string {
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return strings.Join(ids, ",")
}

func TestMerge(t *testing.T) {
	tt := []struct {
		name   string
		first  []Track
		second []Track
		want   string
	}{
		{name: "both sides", first: tracks("a", "b"), second: tracks("c"), want: "a,b,c"},
		{name: "peer absent", first: tracks("a", "b"), second: nil, want: "a,b"},
		{name: "duplicates kept", first: tracks("a"), second: tracks("a"), want: "a,a"},
		{name: "empty", first: nil, second: nil, want: ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.first, tc.second)
			if trackIDs(got) != tc.want {
				t.Errorf("Merge() = %s, want %s", trackIDs(got), tc.want)
			}
		})
	}

	t.Run("does not alias inputs", func(t *testing.T) {
		first := make([]Track, 1, 4)
		first[0] = Track{ID: "a"}
		merged := Merge(first, tracks("b"))
		merged[0].ID = "z"
		if first[0].ID != "a" {
			t.Error("Merge must not write through to its inputs")
		}
	})
}

func TestSession(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("new session has no peer", func(t *testing.T) {
		s := NewSession("abc123", tracks("a", "b"), now, time.Hour)
		if s.HasPeer() {
			t.Error("expected no peer on a new session")
		}
		if !s.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Errorf("unexpected expiry %v", s.ExpiresAt)
		}
	})

	t.Run("json shape", func(t *testing.T) {
		s := NewSession("abc123", tracks("a"), now, time.Hour)
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		body := string(data)
		for _, want := range []string{`"sessionId":"abc123"`, `"user2Tracks":null`, `"recommendations":null`, `"user1Tracks":[{`} {
			if !strings.Contains(body, want) {
				t.Errorf("expected %s in %s", want, body)
			}
		}
	})

	t.Run("nil first tracks become empty list", func(t *testing.T) {
		s := NewSession("abc123", nil, now, time.Hour)
		if s.User1Tracks == nil {
			t.Error("expected non-nil user1 tracks")
		}
	})

	t.Run("peer joined with no tracks", func(t *testing.T) {
		var s Session
		if err := json.Unmarshal([]byte(`{"sessionId":"x","user1Tracks":[],"user2Tracks":[]}`), &s); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !s.HasPeer() {
			t.Error("an empty peer list still means the peer joined")
		}
	})

	t.Run("expiry boundary", func(t *testing.T) {
		s := NewSession("abc123", nil, now, time.Minute)
		if s.Expired(now.Add(59 * time.Second)) {
			t.Error("should not be expired before ttl")
		}
		if !s.Expired(now.Add(time.Minute)) {
			t.Error("should be expired at ttl")
		}
	})

	t.Run("clone is deep", func(t *testing.T) {
		s := NewSession("abc123", []Track{{ID: "a", Artists: []Artist{{Name: "X"}}}}, now, time.Hour)
		c := s.Clone()
		c.User1Tracks[0].Artists[0].Name = "Y"
		c.User1Tracks[0].ID = "b"
		if s.User1Tracks[0].ID != "a" || s.User1Tracks[0].Artists[0].Name != "X" {
			t.Error("clone shares memory with original")
		}
		if c.User2Tracks != nil {
			t.Error("clone should keep nil peer tracks nil")
		}
	})
}

func TestTrackHelpers(t *testing.T) {
	if got := (Track{}).PrimaryArtist(); got != "Unknown Artist" {
		t.Errorf("PrimaryArtist() = %q, want Unknown Artist", got)
	}
	if got := (Track{Artists: []Artist{{Name: "A"}, {Name: "B"}}}).PrimaryArtist(); got != "A" {
		t.Errorf("PrimaryArtist() = %q, want A", got)
	}

	uris := URIs(append(tracks("a"), Track{ID: "local"}))
	if len(uris) != 1 || uris[0] != "spotify:track:a" {
		t.Errorf("URIs() = %v", uris)
	}
}
