package sms

import (
	"encoding/json"
	"fmt"
	"strings"
)

// result is the single internal outcome every gateway response collapses
// into, so callers never branch on transport-specific shapes.
type result struct {
	success bool
	errText string
	raw     string
}

// normalize folds the gateway's heterogeneous response encodings into one
// result. Known shapes, in the order they are checked:
//
//	{"error": "..."}                          → failure with the error text
//	{"status": "error", "reason": "..."}      → failure with the reason
//	{"success": true}                          → success
//	{"code": 200}                              → success for any 2xx code
//
// The positive forms count only when the HTTP status itself is 2xx; a
// success body on a failed HTTP exchange is still a failure. Anything
// else, including unparsable bodies, is a failure with the best available
// error text.
func normalize(statusCode int, body []byte) result {
	raw := strings.TrimSpace(string(body))
	res := result{raw: raw}
	httpOK := statusCode >= 200 && statusCode < 300

	var envelope map[string]any
	parsed := json.Unmarshal(body, &envelope) == nil

	if parsed {
		if msg, ok := envelope["error"].(string); ok && msg != "" {
			res.errText = msg
			return res
		}
		if status, ok := envelope["status"].(string); ok && strings.EqualFold(status, "error") {
			if reason, ok := envelope["reason"].(string); ok && reason != "" {
				res.errText = reason
			} else {
				res.errText = "gateway error"
			}
			return res
		}
		if ok, isBool := envelope["success"].(bool); isBool {
			if ok && httpOK {
				res.success = true
				return res
			}
			res.errText = bestErrorText(envelope, raw, statusCode)
			return res
		}
		if code, isNum := envelope["code"].(float64); isNum {
			if code >= 200 && code < 300 && httpOK {
				res.success = true
				return res
			}
			if httpOK {
				res.errText = fmt.Sprintf("gateway code %d", int(code))
			} else {
				res.errText = bestErrorText(envelope, raw, statusCode)
			}
			return res
		}
	}

	res.errText = bestErrorText(envelope, raw, statusCode)
	return res
}

// bestErrorText picks the most useful failure description available.
func bestErrorText(envelope map[string]any, raw string, statusCode int) string {
	for _, key := range []string{"message", "reason", "detail"} {
		if msg, ok := envelope[key].(string); ok && msg != "" {
			return msg
		}
	}
	if statusCode < 200 || statusCode >= 300 {
		if raw != "" {
			return fmt.Sprintf("http %d: %s", statusCode, raw)
		}
		return fmt.Sprintf("http %d", statusCode)
	}
	if raw != "" {
		return "unrecognized gateway response: " + raw
	}
	return "empty gateway response"
}
