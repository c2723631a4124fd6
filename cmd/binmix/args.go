package main

import "strings"

// legacyFlags maps flag spellings from older releases to their current names.
var legacyFlags = map[string]string{
	"-bg": "--binaural-gain",
}

// valueFlags take a number that may be negative. They are joined to their
// value with "=" so "-3" is not mistaken for a flag.
var valueFlags = map[string]bool{
	"--binaural-gain": true,
	"--effect-gain":   true,
}

// rewriteArgs translates legacy flags and joins numeric flags to their values.
func rewriteArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}

		name, value, hasValue := strings.Cut(arg, "=")
		if current, ok := legacyFlags[name]; ok {
			name = current
			arg = name
			if hasValue {
				arg += "=" + value
			}
		}

		if valueFlags[name] && !hasValue && i+1 < len(args) {
			i++
			arg = name + "=" + args[i]
		}
		out = append(out, arg)
	}
	return out
}
