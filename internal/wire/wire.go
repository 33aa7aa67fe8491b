// Package wire encodes requests to and decodes notifications from the HSP
// debuggee. Every websocket text frame carries exactly one JSON object with
// a "type" discriminator.
package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/grovetools/hspdebug/errors"
	"github.com/tidwall/gjson"
)

// Type discriminates wire messages.
type Type string

// Requests sent to the debuggee.
const (
	TypePause    Type = "pause"
	TypeContinue Type = "continue"
	TypeNext     Type = "next"
	TypeGlobals  Type = "globals"
)

// Notifications sent by the debuggee. TypeContinue and TypeGlobals are
// used in both directions.
const (
	TypeStop       Type = "stop"
	TypeBreakpoint Type = "breakpoint"
	TypeOutput     Type = "output"
)

// Request is a message to the debuggee. ID correlates a globals request
// with its notification when the debuggee echoes it.
type Request struct {
	Type Type   `json:"type"`
	ID   string `json:"id,omitempty"`
}

// Encode renders r as a single JSON text frame.
func (r Request) Encode() string {
	data, err := json.Marshal(r)
	if err != nil {
		// Request holds only strings.
		panic(err)
	}
	return string(data)
}

// Variable is one name/value pair of a globals notification.
type Variable struct {
	Name  string
	Value string
}

// Notification is a decoded debuggee message. Only the fields of its Type
// are set.
type Notification struct {
	Type Type

	// stop
	File string
	Line int

	// globals
	Vars []Variable
	ID   string

	// breakpoint
	BreakpointID int
	Verified     bool

	// output
	Text string
}

// Decode parses one text frame. Malformed or unknown messages yield a
// PROTOCOL_VIOLATION error.
func Decode(text string) (*Notification, error) {
	if !gjson.Valid(text) {
		return nil, errors.ProtocolViolation("message is not valid JSON", text)
	}
	msg := gjson.Parse(text)
	if !msg.IsObject() {
		return nil, errors.ProtocolViolation("message is not a JSON object", text)
	}

	n := &Notification{Type: Type(msg.Get("type").String())}
	switch n.Type {
	case TypeStop:
		line, ok := intValue(msg.Get("line"))
		if !ok {
			return nil, errors.ProtocolViolation("stop without a numeric line", text)
		}
		n.Line = line
		n.File = msg.Get("file").String()

	case TypeContinue:

	case TypeGlobals:
		n.ID = msg.Get("id").String()
		n.Vars = decodeVars(msg.Get("vars"))

	case TypeBreakpoint:
		id, ok := intValue(msg.Get("id"))
		if !ok {
			return nil, errors.ProtocolViolation("breakpoint without a numeric id", text)
		}
		n.BreakpointID = id
		n.Verified = msg.Get("verified").Bool()

	case TypeOutput:
		n.Text = msg.Get("text").String()

	case "":
		return nil, errors.ProtocolViolation("message has no type", text)
	default:
		return nil, errors.ProtocolViolation(fmt.Sprintf("unknown message type %q", n.Type), text)
	}
	return n, nil
}

// decodeVars accepts [{name, value}] as well as the older {name: value} map.
// Non-string values are kept as their JSON text.
func decodeVars(vars gjson.Result) []Variable {
	result := []Variable{}
	switch {
	case vars.IsArray():
		vars.ForEach(func(_, item gjson.Result) bool {
			name := item.Get("name")
			if !name.Exists() {
				return true
			}
			result = append(result, Variable{Name: name.String(), Value: valueText(item.Get("value"))})
			return true
		})
	case vars.IsObject():
		vars.ForEach(func(key, value gjson.Result) bool {
			result = append(result, Variable{Name: key.String(), Value: valueText(value)})
			return true
		})
	}
	return result
}

func valueText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Null:
		if !v.Exists() {
			return ""
		}
		return "null"
	default:
		return v.Raw
	}
}

func intValue(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		return int(v.Int()), true
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.String()))
		return n, err == nil
	default:
		return 0, false
	}
}
