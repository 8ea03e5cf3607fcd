package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateNewFileName(t *testing.T) {
	dir := os.TempDir()
	fileDir := dir + "/anx-sync-test-util"
	fileLoc := fileDir + "/test.epub"
	if _, err := os.Stat(fileDir); os.IsNotExist(err) {
		err := os.Mkdir(fileDir, 0755)
		if err != nil {
			t.Fatalf("Error create tempDir: %s, err: %v", fileDir, err)
		}
	}
	defer os.RemoveAll(fileDir)

	if _, err := os.Create(fileLoc); err != nil {
		t.Fatalf("Error create file: %s", fileLoc)
	}

	for i := 1; i < 15; i++ {
		newFile := GenerateNewFileName(fileLoc)
		t.Logf("New filename: %s", newFile)
		expected := fmt.Sprintf("%s/test_%d.epub", fileDir, i)
		if newFile != expected {
			t.Errorf("Error generate new filename, expected: %s, but got: %s", expected, newFile)
		}
		if _, err := os.Create(newFile); err != nil {
			t.Errorf("Error create new file: %s, err: %v", newFile, err)
		}
	}
}

func TestGenerateNewFileNameUnderscoredBase(t *testing.T) {
	dir := t.TempDir()
	// Sanitized titles carry underscores, the suffix must not eat the base
	base := filepath.Join(dir, "Dune_ Part - Author.epub")
	for _, name := range []string{"Dune_ Part - Author.epub", "Dune_ Part - Author_1.epub"} {
		if _, err := os.Create(filepath.Join(dir, name)); err != nil {
			t.Fatalf("Error create file: %s, err: %v", name, err)
		}
	}

	got := GenerateNewFileName(base)
	want := filepath.Join(dir, "Dune_ Part - Author_2.epub")
	if got != want {
		t.Errorf("Error generate new filename, expected: %s, but got: %s", want, got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := SanitizeFilename(`So<me: "Bo|ok?" * 2/3\4`)
	if strings.ContainsAny(got, `<>:"/\|?*`) {
		t.Errorf("Sanitized name still has forbidden characters: %q", got)
	}
}

func TestFilenameBound(t *testing.T) {
	title := strings.Repeat("A very very very long title ", 5)
	got := Filename(title, "Author Name", "epub", 90)

	if !strings.HasSuffix(got, ".epub") {
		t.Errorf("Expected .epub suffix, got %q", got)
	}
	if len(got) > 90+len(".epub") {
		t.Errorf("Name too long: %d chars: %q", len(got), got)
	}
	if strings.ContainsAny(got, `<>:"/\|?*`) {
		t.Errorf("Name has forbidden characters: %q", got)
	}

	// Deterministic for identical inputs
	if again := Filename(title, "Author Name", "epub", 90); again != got {
		t.Errorf("Filename not deterministic: %q vs %q", got, again)
	}
}

func TestFilenameFold(t *testing.T) {
	got := Filename("Éloge de l'ombre", "Jun'ichirō Tanizaki", "epub", 90)
	if got != "Eloge de l'ombre - Jun'ichiro Tanizaki.epub" {
		t.Errorf("Unexpected folded name: %q", got)
	}
}
