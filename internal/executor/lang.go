package executor

import (
	"runtime"

	"codelive/internal/domain"
)

// LangConfig describes how to stage, compile, and run one language.
// File and Binary are fixed per language, not per request: executions
// for the same language share the same on-disk paths and are therefore
// serialized by the pipeline (see Executor).
type LangConfig struct {
	File     string   // staged source filename
	Binary   string   // compiled artifact, empty for interpreted languages
	Compile  []string // compile argv, nil for interpreted languages
	Run      []string // run argv
	Version  string
	Compiler string
}

const (
	LangCpp        domain.Language = "cpp"
	LangPython     domain.Language = "python"
	LangJavascript domain.Language = "javascript"
)

// langTable builds the config table for the given GOOS. The compiled
// artifact name and run argv differ on windows (.exe, no ./ prefix).
func langTable(goos string) map[domain.Language]LangConfig {
	cpp := LangConfig{
		File:     "code.cpp",
		Binary:   "code.out",
		Compile:  []string{"g++", "code.cpp", "-o", "code.out"},
		Run:      []string{"./code.out"},
		Version:  "17",
		Compiler: "g++",
	}
	if goos == "windows" {
		cpp.Binary = "code.exe"
		cpp.Compile = []string{"g++", "code.cpp", "-o", "code.exe"}
		cpp.Run = []string{"code.exe"}
	}

	return map[domain.Language]LangConfig{
		LangCpp: cpp,
		LangPython: {
			File:    "code.py",
			Run:     []string{"python3", "code.py"},
			Version: "3",
		},
		LangJavascript: {
			File:    "code.js",
			Run:     []string{"node", "code.js"},
			Version: "node",
		},
	}
}

// DefaultTable returns the config table for the host platform.
func DefaultTable() map[domain.Language]LangConfig {
	return langTable(runtime.GOOS)
}

// Languages lists the supported languages in a stable order.
func Languages() []domain.LanguageInfo {
	return []domain.LanguageInfo{
		{Name: LangCpp, Version: "17", Compiler: "g++"},
		{Name: LangPython, Version: "3"},
		{Name: LangJavascript, Version: "node"},
	}
}
