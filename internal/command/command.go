// Package command models outbound chat protocol directives before wire encoding.
package command

import (
	"errors"
	"strings"
)

// terminator ends every line on the wire.
const terminator = "\r\n"

// ErrMalformedArgument is returned at encode time when a command would embed
// the line terminator and corrupt the wire stream.
var ErrMalformedArgument = errors.New("command argument contains CR or LF")

// Command is a single outbound protocol directive: a fixed verb plus a
// verb-specific argument. Commands are immutable values with no identity
// beyond equality of their fields.
type Command struct {
	verb     string
	argument string
}

// Raw builds a Command from an arbitrary verb and argument. Prefer the typed
// constructors below for the verbs the client normally issues.
func Raw(verb, argument string) Command {
	return Command{verb: verb, argument: argument}
}

// Verb returns the protocol keyword.
func (c Command) Verb() string {
	return c.verb
}

// Argument returns the verb-specific payload.
func (c Command) Argument() string {
	return c.argument
}

// Render returns the wire form of the command without the terminator,
// e.g. "JOIN #somechannel". Commands with an empty argument render as the
// bare verb.
func (c Command) Render() string {
	if c.argument == "" {
		return c.verb
	}
	return c.verb + " " + c.argument
}

// Encode returns the terminated wire bytes for the command. It fails only
// when the verb or argument embeds CR or LF; a well-formed command always
// encodes to the same bytes.
func (c Command) Encode() ([]byte, error) {
	if strings.ContainsAny(c.verb, terminator) || strings.ContainsAny(c.argument, terminator) {
		return nil, ErrMalformedArgument
	}
	return []byte(c.Render() + terminator), nil
}

// Nick sets the login nickname during registration.
func Nick(nick string) Command {
	return Command{verb: "NICK", argument: nick}
}

// Pass presents the OAuth token; must be enqueued ahead of Nick.
func Pass(token string) Command {
	return Command{verb: "PASS", argument: token}
}

// Join enters a channel. The leading '#' is added when missing and the name
// is lowercased, since the chat service only knows lowercase channel names.
func Join(channel string) Command {
	return Command{verb: "JOIN", argument: channelName(channel)}
}

// Part leaves a channel.
func Part(channel string) Command {
	return Command{verb: "PART", argument: channelName(channel)}
}

// CapReq requests optional protocol capabilities before normal traffic
// begins, e.g. CapReq("twitch.tv/tags", "twitch.tv/commands").
func CapReq(caps ...string) Command {
	return Command{verb: "CAP", argument: "REQ :" + strings.Join(caps, " ")}
}

// Privmsg sends a chat message to a channel.
func Privmsg(channel, text string) Command {
	return Command{verb: "PRIVMSG", argument: channelName(channel) + " :" + text}
}

// Pong answers a server keepalive probe with the token the probe carried.
func Pong(token string) Command {
	return Command{verb: "PONG", argument: token}
}

// Quit announces a clean disconnect.
func Quit() Command {
	return Command{verb: "QUIT"}
}

func channelName(channel string) string {
	channel = strings.ToLower(channel)
	if strings.HasPrefix(channel, "#") {
		return channel
	}
	return "#" + channel
}
