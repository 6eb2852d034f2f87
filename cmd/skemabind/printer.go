package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/format"
)

type printer struct {
	w      io.Writer
	okc    *color.Color
	failc  *color.Color
	pathc  *color.Color
	codec  *color.Color
	insert *color.Color
	delete *color.Color
}

func newPrinter(w io.Writer, noColor bool) *printer {
	p := &printer{
		w:      w,
		okc:    color.New(color.FgGreen, color.Bold),
		failc:  color.New(color.FgRed, color.Bold),
		pathc:  color.New(color.FgCyan),
		codec:  color.New(color.FgYellow),
		insert: color.New(color.FgGreen),
		delete: color.New(color.FgRed),
	}
	if noColor {
		for _, c := range []*color.Color{p.okc, p.failc, p.pathc, p.codec, p.insert, p.delete} {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) ok(name string) {
	fmt.Fprintf(p.w, "%s %s\n", p.okc.Sprint("ok"), name)
}

// failure prints err under name, one line per issue when err carries issues.
func (p *printer) failure(name string, err error) {
	fmt.Fprintf(p.w, "%s %s\n", p.failc.Sprint("FAIL"), name)
	iss, ok := skemabind.AsIssues(err)
	if !ok {
		fmt.Fprintf(p.w, "  %s\n", err)
		return
	}
	for _, it := range iss {
		path := it.Path
		if path == "" {
			path = "/"
		}
		line := fmt.Sprintf("  %s %s %s", p.pathc.Sprint(path), p.codec.Sprintf("[%s]", it.Code), it.Message)
		if it.Rule != "" {
			line += fmt.Sprintf(" (rule %s)", it.Rule)
		}
		fmt.Fprintln(p.w, line)
	}
}

// compare prints a line diff between the canonical forms of in and out and
// reports whether they differ.
func (p *printer) compare(name string, in, out map[string]any) (bool, error) {
	a, err := canonicalLines(in)
	if err != nil {
		return false, err
	}
	b, err := canonicalLines(out)
	if err != nil {
		return false, err
	}
	if a == b {
		p.ok(name)
		return false, nil
	}
	fmt.Fprintf(p.w, "%s %s\n", p.failc.Sprint("CHANGED"), name)
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	for _, d := range diffs {
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l == "" {
				continue
			}
			l = strings.TrimSuffix(l, "\n")
			switch d.Type {
			case diffpatch.DiffInsert:
				fmt.Fprintln(p.w, p.insert.Sprint("+ "+l))
			case diffpatch.DiffDelete:
				fmt.Fprintln(p.w, p.delete.Sprint("- "+l))
			default:
				fmt.Fprintln(p.w, "  "+l)
			}
		}
	}
	return true, nil
}

// canonicalLines renders v as RFC 8785 JSON re-indented one member per line,
// so the diff is stable under key order and number spelling.
func canonicalLines(v map[string]any) (string, error) {
	c, err := format.CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	doc, err := format.DecodeJSONValue(c)
	if err != nil {
		return "", err
	}
	out, err := format.EncodeJSONIndent(doc)
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
