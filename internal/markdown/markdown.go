// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts the restricted Markdown dialect used in chat
// replies into HTML fragments. It is a fixed sequence of textual
// substitutions, not a parser: each pass rewrites the whole string and
// later passes see the HTML produced by earlier ones.
//
// Raw HTML in the input is not escaped and passes straight through to the
// output. Callers that insert the fragment into a page own that risk.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	blockquoteRe = regexp.MustCompile(`(?m)^> (.+)$`)
	fenceRe      = regexp.MustCompile("(?s)```(.*?)```")
	hruleRe      = regexp.MustCompile(`(?m)^(---|\*\*\*)$`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	boldStarRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnderRe  = regexp.MustCompile(`__([^_]+)__`)
	italStarRe   = regexp.MustCompile(`\*([^*]+)\*`)
	italUnderRe  = regexp.MustCompile(`_([^_]+)_`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")

	newlineRe = regexp.MustCompile(`\r\n?`)

	unorderedItemRe = regexp.MustCompile(`^[-*] (.+)$`)
	orderedItemRe   = regexp.MustCompile(`^\d+\. (.+)$`)
	itemMarkerRe    = regexp.MustCompile(`^[-*]\s|^\d+\.\s`)
	blockStartRe    = regexp.MustCompile(`^(<h[1-6]|<ul|<ol|<pre|<blockquote|<hr)`)
)

// headingRes holds the heading patterns from level 6 down to level 1, so a
// longer run of '#' is always consumed before a shorter prefix could match.
var headingRes = func() []headingRule {
	rules := make([]headingRule, 0, 6)
	for level := 6; level >= 1; level-- {
		rules = append(rules, headingRule{
			re:   regexp.MustCompile(`(?m)^` + strings.Repeat("#", level) + ` (.*)$`),
			repl: fmt.Sprintf("<h%d>${1}</h%d>", level, level),
		})
	}
	return rules
}()

type headingRule struct {
	re   *regexp.Regexp
	repl string
}

// Render converts text to an HTML fragment. It never fails; input it does
// not recognise comes back as-is (wrapped in a paragraph when it is not
// block-level). CRLF and lone CR line endings are read as LF, and the
// output only ever uses LF. Render is safe for concurrent use.
func Render(text string) string {
	if text == "" {
		return ""
	}

	// Line-anchored patterns only treat LF as a line end.
	text = newlineRe.ReplaceAllLiteralString(text, "\n")

	html := blockquoteRe.ReplaceAllString(text, "<blockquote>${1}</blockquote>")
	html = fenceRe.ReplaceAllString(html, "<pre><code>${1}</code></pre>")
	for _, h := range headingRes {
		html = h.re.ReplaceAllString(html, h.repl)
	}
	html = hruleRe.ReplaceAllString(html, "<hr>")
	html = linkRe.ReplaceAllString(html, `<a href="${2}" target="_blank" rel="noopener noreferrer">${1}</a>`)

	// Bold before italic so "**x**" is not read as two empty emphasis spans.
	html = boldStarRe.ReplaceAllString(html, "<strong>${1}</strong>")
	html = boldUnderRe.ReplaceAllString(html, "<strong>${1}</strong>")
	html = italStarRe.ReplaceAllString(html, "<em>${1}</em>")
	html = italUnderRe.ReplaceAllString(html, "<em>${1}</em>")

	html = inlineCodeRe.ReplaceAllString(html, "<code>${1}</code>")

	html = groupLists(html)
	return wrapParagraphs(html)
}

// listKind identifies which list type a line belongs to, if any.
type listKind int

const (
	notList listKind = iota
	unordered
	ordered
)

func classify(trimmed string) listKind {
	switch {
	case unorderedItemRe.MatchString(trimmed):
		return unordered
	case orderedItemRe.MatchString(trimmed):
		return ordered
	default:
		return notList
	}
}

// groupLists scans line by line and wraps runs of list items in <ul> or
// <ol>. A whole run is emitted as a single output line. The open/closed
// state lives only for the duration of one call.
func groupLists(html string) string {
	lines := strings.Split(html, "\n")
	out := make([]string, 0, len(lines))

	var inUnordered, inOrdered bool
	var run strings.Builder

	closeOpen := func() {
		if inUnordered {
			run.WriteString("</ul>")
			inUnordered = false
		}
		if inOrdered {
			run.WriteString("</ol>")
			inOrdered = false
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		kind := classify(trimmed)

		if kind == notList {
			if inUnordered || inOrdered {
				closeOpen()
				out = append(out, run.String())
				run.Reset()
			}
			if trimmed == "" {
				out = append(out, "<br>")
			} else {
				out = append(out, line)
			}
			continue
		}

		switch {
		case kind == unordered && !inUnordered:
			closeOpen()
			run.WriteString("<ul>")
			inUnordered = true
		case kind == ordered && !inOrdered:
			closeOpen()
			run.WriteString("<ol>")
			inOrdered = true
		}

		run.WriteString("<li>")
		run.WriteString(itemMarkerRe.ReplaceAllLiteralString(trimmed, ""))
		run.WriteString("</li>")
	}

	if inUnordered || inOrdered {
		closeOpen()
		out = append(out, run.String())
	}

	return strings.Join(out, "\n")
}

// wrapParagraphs splits on blank-line boundaries and wraps every candidate
// that is not already block-level markup in <p>, turning its inner newlines
// into <br>.
func wrapParagraphs(html string) string {
	parts := strings.Split(html, "\n\n")
	for i, p := range parts {
		trimmed := strings.TrimSpace(p)
		if blockStartRe.MatchString(trimmed) || trimmed == "<br>" {
			continue
		}
		parts[i] = "<p>" + strings.ReplaceAll(p, "\n", "<br>") + "</p>"
	}
	return strings.Join(parts, "\n")
}
