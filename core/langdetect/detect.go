// Package langdetect guesses the language of an unlabelled code block.
// The heuristics are keyword checks tried in a fixed order; the first family
// that matches wins, so a snippet mixing keywords lands on the earliest one.
package langdetect

import (
	"encoding/json"
	"regexp"
	"strings"
)

// minLength is the shortest text worth guessing about.
const minLength = 10

var (
	sqlRe  = regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)\b`)
	yamlRe = regexp.MustCompile(`^\s*\w+:\s*`)
)

// rule reports whether text looks like one language. Rules that need the
// first line get it precomputed.
type rule struct {
	lang  string
	match func(text, first string) bool
}

var rules = []rule{
	{"", scriptFamily},
	{"python", func(t, first string) bool {
		return hasAny(t, "def ", "import ", "from ", "print(", "if __name__", "class ") ||
			(strings.HasPrefix(first, "#!") && strings.Contains(first, "python"))
	}},
	{"java", func(t, _ string) bool {
		return hasAny(t, "public class ", "private ", "public static void main", "System.out.println", "import java.")
	}},
	{"csharp", func(t, _ string) bool {
		return hasAny(t, "using System", "namespace ", "public class ", "Console.WriteLine", "[Attribute]")
	}},
	{"", cFamily},
	{"go", func(t, _ string) bool {
		return hasAny(t, "package ", "func ", "import (", "fmt.Printf", "go ")
	}},
	{"rust", func(t, _ string) bool {
		return hasAny(t, "fn ", "let mut", "println!", "use std::", "impl ")
	}},
	{"php", func(t, _ string) bool {
		return strings.Contains(t, "<?php") ||
			(strings.Contains(t, "$") && hasAny(t, "echo", "print"))
	}},
	{"ruby", func(t, _ string) bool {
		return strings.Contains(t, "def ") && hasAny(t, "end", "puts", "require")
	}},
	{"bash", func(t, first string) bool {
		return (strings.HasPrefix(first, "#!") && (strings.Contains(first, "bash") || strings.Contains(first, "sh"))) ||
			strings.Contains(t, "#!/bin/") ||
			(strings.Contains(t, "echo") && strings.Contains(t, "$"))
	}},
	{"sql", func(t, _ string) bool { return sqlRe.MatchString(t) }},
	{"css", func(t, _ string) bool {
		return strings.Contains(t, "{") && strings.Contains(t, "}") && strings.Contains(t, ":") &&
			hasAny(t, "color:", "margin:", "padding:", "#")
	}},
	{"html", func(t, _ string) bool {
		return strings.Contains(t, "<") && strings.Contains(t, ">") &&
			hasAny(t, "<!DOCTYPE", "<html", "<div", "<p")
	}},
	{"xml", func(t, _ string) bool {
		return strings.Contains(t, "<?xml") ||
			(strings.Contains(t, "<") && strings.Contains(t, ">") && strings.Contains(t, "</"))
	}},
	{"json", func(t, _ string) bool { return looksLikeJSON(t) }},
	{"yaml", func(t, _ string) bool {
		if strings.Contains(t, "{") || strings.Contains(t, ";") {
			return false
		}
		for _, line := range strings.Split(t, "\n") {
			if yamlRe.MatchString(line) {
				return true
			}
		}
		return false
	}},
	{"markdown", func(t, _ string) bool {
		return hasAny(t, "# ", "## ", "```") ||
			(strings.Contains(t, "[") && strings.Contains(t, "]("))
	}},
	{"dockerfile", func(t, first string) bool {
		return strings.HasPrefix(first, "FROM ") || hasAny(t, "RUN ", "COPY ", "WORKDIR ")
	}},
}

// Detect returns the language name used in a fence info string, or "" when
// nothing matches or text is too short to judge.
func Detect(text string) string {
	t := strings.TrimSpace(text)
	if len(t) < minLength {
		return ""
	}
	first, _, _ := strings.Cut(t, "\n")
	first = strings.TrimSpace(first)

	for _, r := range rules {
		if !r.match(t, first) {
			continue
		}
		if r.lang != "" {
			return r.lang
		}
		return refine(t)
	}
	return ""
}

// refine splits the two rules that cover a pair of languages.
func refine(t string) string {
	if scriptFamily(t, "") {
		if strings.Contains(t, ": ") && hasAny(t, "interface ", "type ", "enum ", "implements ") {
			return "typescript"
		}
		return "javascript"
	}
	if hasAny(t, "std::", "cout") {
		return "cpp"
	}
	return "c"
}

func scriptFamily(t, _ string) bool {
	return hasAny(t, "function ", "const ", "let ", "var ", "=>", "console.log", "require(", "import ", "export ")
}

func cFamily(t, _ string) bool {
	return hasAny(t, "#include", "int main", "printf(", "cout <<", "std::")
}

func looksLikeJSON(t string) bool {
	wrapped := (strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}")) ||
		(strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]"))
	return wrapped && json.Valid([]byte(t))
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
