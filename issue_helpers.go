package skemabind

import (
	"fmt"

	"github.com/reoring/skemabind/i18n"
)

// IssueAt creates an Issue at the given path with provided code, message and params map.
// An empty message is filled from the translator.
func IssueAt(p PathRef, code, msg string, params map[string]any) Issue {
	if msg == "" {
		msg = i18n.T(code, stringParams(params))
	}
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: params}
}

func stringParams(params map[string]any) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = fmt.Sprint(v)
	}
	return out
}
