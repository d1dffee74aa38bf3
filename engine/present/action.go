// Package present renders a decoded vehicle record into level-aware text and
// builds the matching navigation controls. The two halves stay in lock-step:
// every level a control can route to is a level the formatter renders
// meaningfully.
package present

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/VinsightAI/vinsight-mvp/engine/domain"
)

// MaxTokenLength is the transport control-payload ceiling in bytes.
const MaxTokenLength = 64

// Closed verb set for action tokens.
const (
	VerbShowLevel       = "show_level"
	VerbShowMarketValue = "show_marketvalue"
	VerbShowHistory     = "show_history"
	VerbSaveVIN         = "save_vin"
	VerbShareVIN        = "share_vin"
	VerbCompareStart    = "compare_start"
	VerbRefresh         = "refresh"
	VerbNewVIN          = "new_vin"
	VerbCloseMenu       = "close_menu"
	VerbDecodeVIN       = "decode_vin"
	VerbDeleteSaved     = "delete_saved"
	VerbRecent          = "recent"
)

var knownVerbs = map[string]bool{
	VerbShowLevel: true, VerbShowMarketValue: true, VerbShowHistory: true,
	VerbSaveVIN: true, VerbShareVIN: true, VerbCompareStart: true,
	VerbRefresh: true, VerbNewVIN: true, VerbCloseMenu: true,
	VerbDecodeVIN: true, VerbDeleteSaved: true, VerbRecent: true,
}

var (
	ErrUnknownVerb    = errors.New("unknown action verb")
	ErrMalformedToken = errors.New("malformed action token")
)

// Action is a decoded navigation intent.
type Action struct {
	Verb string
	Args []string
}

// Encode builds the colon-delimited token for a verb and its arguments.
// Tokens are short by construction; the transport ceiling is asserted in
// tests, not at runtime.
func Encode(verb string, args ...string) string {
	if len(args) == 0 {
		return verb
	}
	return verb + ":" + strings.Join(args, ":")
}

// EncodeLevel builds the level-switch token for a VIN.
func EncodeLevel(level domain.DisclosureLevel, vin string) string {
	return Encode(VerbShowLevel, strconv.Itoa(int(level)), vin)
}

// Parse decodes a token back into an Action. Unknown verbs and empty tokens
// fail closed.
func Parse(token string) (Action, error) {
	if token == "" || len(token) > MaxTokenLength {
		return Action{}, ErrMalformedToken
	}
	parts := strings.Split(token, ":")
	if !knownVerbs[parts[0]] {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownVerb, parts[0])
	}
	return Action{Verb: parts[0], Args: parts[1:]}, nil
}

// LevelArg interprets a show_level argument, clamping garbage to standard.
func LevelArg(a Action) domain.DisclosureLevel {
	if a.Verb != VerbShowLevel || len(a.Args) == 0 {
		return domain.LevelStandard
	}
	n, err := strconv.Atoi(a.Args[0])
	if err != nil {
		return domain.LevelStandard
	}
	return domain.ClampLevel(domain.DisclosureLevel(n))
}

// VINArg returns the VIN argument of an action, if present.
func VINArg(a Action) string {
	switch a.Verb {
	case VerbShowLevel:
		if len(a.Args) >= 2 {
			return a.Args[1]
		}
	default:
		if len(a.Args) >= 1 {
			return a.Args[0]
		}
	}
	return ""
}
