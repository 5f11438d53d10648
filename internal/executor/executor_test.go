package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"codelive/internal/domain"
)

// shTable builds a language table backed by plain shell commands so the
// pipeline can be exercised without any real toolchain installed.
func shTable() map[domain.Language]LangConfig {
	return map[domain.Language]LangConfig{
		"cat-src": {
			File: "main.txt",
			Run:  []string{"cat", "main.txt"},
		},
		"cat-stdin": {
			File: "ignored.txt",
			Run:  []string{"cat"},
		},
		"fail-silent": {
			File: "ignored.txt",
			Run:  []string{"sh", "-c", "exit 3"},
		},
		"fail-loud": {
			File: "ignored.txt",
			Run:  []string{"sh", "-c", "echo boom >&2; exit 1"},
		},
		"compiled-bad": {
			File:    "src.txt",
			Binary:  "src.bin",
			Compile: []string{"sh", "-c", "echo nope >&2; exit 1"},
			Run:     []string{"sh", "-c", "echo never"},
		},
		"compiled-good": {
			File:    "src.txt",
			Binary:  "src.bin",
			Compile: []string{"sh", "-c", "cp src.txt src.bin"},
			Run:     []string{"cat", "src.bin"},
		},
		"no-such-bin": {
			File: "ignored.txt",
			Run:  []string{"/nonexistent/interpreter"},
		},
		"sleepy": {
			File: "ignored.txt",
			Run:  []string{"sleep", "10"},
		},
		"forking": {
			File: "ignored.txt",
			Run:  []string{"sh", "-c", "sleep 10 & exec sleep 30"},
		},
	}
}

func newTestExecutor(t *testing.T, timeout time.Duration) *Executor {
	t.Helper()
	e, err := NewWithTable(t.TempDir(), timeout, shTable(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewWithTable: %v", err)
	}
	return e
}

func TestRun_StagesSourceVerbatim(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	code := "hello\nfrom the staged file"
	result, err := e.Run(context.Background(), &domain.RunRequest{Language: "cat-src", Code: code})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != code {
		t.Errorf("expected staged source back, got %q", result.Output)
	}
}

func TestRun_FeedsStdinAndClosesIt(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	result, err := e.Run(context.Background(), &domain.RunRequest{
		Language: "cat-stdin",
		Code:     "unused",
		Input:    "line one\nline two\n",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// cat exits only once stdin reaches EOF, so a result at all proves
	// stdin was closed after the input was written.
	if result.Output != "line one\nline two\n" {
		t.Errorf("expected stdin echoed back, got %q", result.Output)
	}
}

func TestRun_EmptyOutputIsValid(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	result, err := e.Run(context.Background(), &domain.RunRequest{Language: "cat-stdin", Code: "unused"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "" {
		t.Errorf("expected empty output, got %q", result.Output)
	}
}

func TestRun_NonzeroExitEmptyStderr(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	result, err := e.Run(context.Background(), &domain.RunRequest{Language: "fail-silent", Code: "unused"})
	if err != nil {
		t.Fatalf("nonzero exit must not be an error, got %v", err)
	}
	if result.Output != "process exited with code 3" {
		t.Errorf("expected synthesized exit message, got %q", result.Output)
	}
}

func TestRun_NonzeroExitWithStderr(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	result, err := e.Run(context.Background(), &domain.RunRequest{Language: "fail-loud", Code: "unused"})
	if err != nil {
		t.Fatalf("nonzero exit must not be an error, got %v", err)
	}
	if result.Output != "boom\n" {
		t.Errorf("expected program stderr as output, got %q", result.Output)
	}
}

func TestRun_CompilationFailure(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	_, err := e.Run(context.Background(), &domain.RunRequest{Language: "compiled-bad", Code: "unused"})
	var compileErr *domain.CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if !strings.Contains(compileErr.Diagnostics, "nope") {
		t.Errorf("expected compiler diagnostics, got %q", compileErr.Diagnostics)
	}
}

func TestRun_CompiledLanguageRunsArtifact(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	result, err := e.Run(context.Background(), &domain.RunRequest{Language: "compiled-good", Code: "artifact body"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "artifact body" {
		t.Errorf("expected compiled artifact contents, got %q", result.Output)
	}
}

func TestRun_CleanupRemovesStaleArtifact(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	// Plant a stale binary from a "previous" request.
	stale := filepath.Join(e.workDir, "src.bin")
	if err := os.WriteFile(stale, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := e.Run(context.Background(), &domain.RunRequest{Language: "compiled-good", Code: "fresh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output != "fresh" {
		t.Errorf("stale artifact leaked into output: %q", result.Output)
	}
}

func TestRun_UnsupportedLanguage(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	_, err := e.Run(context.Background(), &domain.RunRequest{Language: "ruby", Code: "puts 1"})
	if !errors.Is(err, domain.ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}

	// No file may be written before the lookup check.
	entries, _ := os.ReadDir(e.workDir)
	if len(entries) != 0 {
		t.Errorf("expected empty work dir, found %d entries", len(entries))
	}
}

func TestRun_SpawnFailure(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	_, err := e.Run(context.Background(), &domain.RunRequest{Language: "no-such-bin", Code: "unused"})
	var spawnErr *domain.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
}

func TestRun_StagingFailure(t *testing.T) {
	e := newTestExecutor(t, 5*time.Second)

	// A non-empty directory squatting on the source path makes the
	// cleanup delete fail.
	if err := os.MkdirAll(filepath.Join(e.workDir, "main.txt"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(e.workDir, "main.txt", "child"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := e.Run(context.Background(), &domain.RunRequest{Language: "cat-src", Code: "unused"})
	var stagingErr *domain.StagingError
	if !errors.As(err, &stagingErr) {
		t.Fatalf("expected StagingError, got %v", err)
	}
}

func TestRun_Timeout(t *testing.T) {
	e := newTestExecutor(t, 200*time.Millisecond)

	start := time.Now()
	_, err := e.Run(context.Background(), &domain.RunRequest{Language: "sleepy", Code: "unused"})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout did not kill the child promptly: %v", elapsed)
	}
}

func TestRun_TimeoutKillsForkedChildren(t *testing.T) {
	e := newTestExecutor(t, 300*time.Millisecond)

	// The program backgrounds a long-lived child that inherits the
	// output pipes. The deadline must kill the whole process group and
	// release the request without waiting for the grandchild.
	start := time.Now()
	_, err := e.Run(context.Background(), &domain.RunRequest{Language: "forking", Code: "unused"})
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed > 3*time.Second {
		t.Errorf("timeout not bounded: Run blocked %v", elapsed)
	}

	// The per-language lock must be free again immediately.
	done := make(chan struct{})
	go func() {
		e.Run(context.Background(), &domain.RunRequest{Language: "forking", Code: "unused"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Error("per-language lock still held after timeout")
	}
}

func TestRun_SameLanguageSerialized(t *testing.T) {
	e := newTestExecutor(t, 10*time.Second)
	e.table["slow-cat"] = LangConfig{
		File: "slow.txt",
		Run:  []string{"sh", "-c", "sleep 0.2; cat slow.txt"},
	}
	e.locks["slow-cat"] = &sync.Mutex{}

	// Two concurrent same-language requests share slow.txt; the
	// per-language lock must keep each run paired with its own source.
	var wg sync.WaitGroup
	outputs := make([]string, 2)
	codes := []string{"first request body", "second request body"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.Run(context.Background(), &domain.RunRequest{
				Language: "slow-cat",
				Code:     codes[i],
			})
			if err != nil {
				t.Errorf("request %d failed: %v", i, err)
				return
			}
			outputs[i] = res.Output
		}(i)
	}
	wg.Wait()

	for i := range codes {
		if outputs[i] != codes[i] {
			t.Errorf("request %d got cross-contaminated output %q", i, outputs[i])
		}
	}
}

func TestLimitedBuffer_Truncates(t *testing.T) {
	lb := limitedBuffer{limit: 8}
	n, err := lb.Write([]byte("0123456789"))
	if err != nil || n != 10 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	if lb.String() != "01234567" {
		t.Errorf("expected truncated buffer, got %q", lb.String())
	}
	if !lb.truncated {
		t.Error("expected truncated flag set")
	}
}
