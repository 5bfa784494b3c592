package wire

import (
	"reflect"
	"testing"

	"github.com/lawnchairsociety/tmi/internal/command"
)

func TestSplitter_SingleChunk(t *testing.T) {
	var s Splitter
	lines := s.Feed([]byte("PING :tmi.twitch.tv\r\n:tmi.twitch.tv 001 nick :Welcome\r\n"))

	want := []string{"PING :tmi.twitch.tv", ":tmi.twitch.tv 001 nick :Welcome"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Feed() = %v, want %v", lines, want)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}
}

func TestSplitter_LineSplitAcrossReads(t *testing.T) {
	var s Splitter

	lines := s.Feed([]byte(":tmi.twitch.tv 001 j"))
	if len(lines) != 0 {
		t.Fatalf("partial chunk produced lines: %v", lines)
	}

	lines = s.Feed([]byte("ustinfan5123 :Welcome\r\n"))
	if len(lines) != 1 {
		t.Fatalf("expected exactly one line, got %v", lines)
	}
	if lines[0] != ":tmi.twitch.tv 001 justinfan5123 :Welcome" {
		t.Errorf("line = %q", lines[0])
	}
}

func TestSplitter_TerminatorSplitBetweenCRAndLF(t *testing.T) {
	var s Splitter

	lines := s.Feed([]byte("first line\r"))
	if len(lines) != 0 {
		t.Fatalf("CR without LF produced lines: %v", lines)
	}

	lines = s.Feed([]byte("\nsecond line\r\n"))
	want := []string{"first line", "second line"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Feed() = %v, want %v", lines, want)
	}
}

func TestSplitter_BareLFTerminator(t *testing.T) {
	var s Splitter
	lines := s.Feed([]byte("one\ntwo\n"))

	want := []string{"one", "two"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Feed() = %v, want %v", lines, want)
	}
}

func TestSplitter_DropsEmptyLines(t *testing.T) {
	var s Splitter
	lines := s.Feed([]byte("\r\n\r\nreal line\r\n\r\n"))

	want := []string{"real line"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Feed() = %v, want %v", lines, want)
	}
}

// TestSplitter_AnyChunkBoundary checks that splitting the byte stream at
// every possible boundary yields the same lines as feeding it whole.
func TestSplitter_AnyChunkBoundary(t *testing.T) {
	stream := []byte("PING :tmi.twitch.tv\r\n:nick!nick@host PRIVMSG #chan :hey\r\n:tmi.twitch.tv 372 nick :motd\r\n")

	var whole Splitter
	want := whole.Feed(stream)

	for cut := 0; cut <= len(stream); cut++ {
		var s Splitter
		got := s.Feed(stream[:cut])
		got = append(got, s.Feed(stream[cut:])...)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d: got %v, want %v", cut, got, want)
		}
	}
}

func TestSplitter_ByteAtATime(t *testing.T) {
	stream := []byte("NICK justinfan5123\r\nJOIN #asmongold\r\n")

	var s Splitter
	var got []string
	for i := range stream {
		got = append(got, s.Feed(stream[i:i+1])...)
	}

	want := []string{"NICK justinfan5123", "JOIN #asmongold"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("byte-at-a-time = %v, want %v", got, want)
	}
}

func TestSplitter_Reset(t *testing.T) {
	var s Splitter
	s.Feed([]byte("dangling partial"))
	if s.Pending() == 0 {
		t.Fatal("expected pending residue before Reset")
	}
	s.Reset()
	if s.Pending() != 0 {
		t.Errorf("Pending() after Reset = %d, want 0", s.Pending())
	}

	lines := s.Feed([]byte("fresh line\r\n"))
	if len(lines) != 1 || lines[0] != "fresh line" {
		t.Errorf("Feed after Reset = %v", lines)
	}
}

// TestSplitter_CommandRoundTrip checks that decoding the encoded form of a
// command yields exactly its rendered form.
func TestSplitter_CommandRoundTrip(t *testing.T) {
	cmds := []command.Command{
		command.Nick("justinfan5123"),
		command.Join("asmongold"),
		command.CapReq("twitch.tv/tags"),
		command.Privmsg("somechannel", "hello there"),
		command.Quit(),
	}

	for _, cmd := range cmds {
		data, err := cmd.Encode()
		if err != nil {
			t.Fatalf("Encode(%s) returned error: %v", cmd.Verb(), err)
		}

		var s Splitter
		lines := s.Feed(data)
		if len(lines) != 1 {
			t.Fatalf("round trip of %s produced %d lines", cmd.Verb(), len(lines))
		}
		if lines[0] != cmd.Render() {
			t.Errorf("round trip of %s = %q, want %q", cmd.Verb(), lines[0], cmd.Render())
		}
	}
}
