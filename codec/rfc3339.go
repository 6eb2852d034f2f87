package codec

import (
	"context"
	"time"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/i18n"
)

// TimeRFC3339 returns a Codec that converts between RFC3339 strings and time.Time.
func TimeRFC3339() Codec[string, time.Time] { return rfc3339Codec{} }

type rfc3339Codec struct{}

func (rfc3339Codec) Decode(_ context.Context, a string) (time.Time, error) {
	t, err := parseRFC3339(a)
	if err != nil {
		return time.Time{}, skemabind.Issues{{
			Path:    "/",
			Code:    skemabind.CodeInvalidFormat,
			Message: i18n.T(skemabind.CodeInvalidFormat, nil),
			Hint:    "RFC3339 time",
			Cause:   err,
		}}
	}
	return t, nil
}

func (rfc3339Codec) Encode(_ context.Context, b time.Time) (string, error) {
	return formatRFC3339Canonical(b), nil
}

// DurationString returns a Codec between Go duration strings ("1h30m") and
// time.Duration.
func DurationString() Codec[string, time.Duration] { return durationCodec{} }

type durationCodec struct{}

func (durationCodec) Decode(_ context.Context, a string) (time.Duration, error) {
	d, err := time.ParseDuration(a)
	if err != nil {
		return 0, skemabind.Issues{{
			Path:    "/",
			Code:    skemabind.CodeInvalidFormat,
			Message: i18n.T(skemabind.CodeInvalidFormat, nil),
			Hint:    "duration",
			Cause:   err,
		}}
	}
	return d, nil
}

func (durationCodec) Encode(_ context.Context, b time.Duration) (string, error) {
	return b.String(), nil
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}
