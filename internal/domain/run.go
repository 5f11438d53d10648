package domain

// Language is a language tag as submitted by clients ("cpp", "python", ...).
// Validity is decided by the executor's config table, not here.
type Language string

// RunRequest is an incoming code execution request.
type RunRequest struct {
	Code     string   `json:"code"`
	Language Language `json:"language"`
	Input    string   `json:"input"`
}

// RunResult carries the captured output of a completed execution.
// A program that ran and exited nonzero still produces a RunResult:
// its Output is the program's stderr (or a message naming the exit
// code). Only pipeline faults are surfaced as errors.
type RunResult struct {
	Output string `json:"output"`
}

// LanguageInfo describes a supported language for the listing endpoint.
type LanguageInfo struct {
	Name     Language `json:"name"`
	Version  string   `json:"version"`
	Compiler string   `json:"compiler,omitempty"`
}
