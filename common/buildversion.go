package common

import (
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// Version is overridden at link time with -ldflags "-X ...common.Version=...".
var Version = "dev"

// GetCommitHash returns the short commit hash of the repository containing the
// working directory or the executable, or "unknown".
func GetCommitHash() string {
	if cwd, err := os.Getwd(); err == nil {
		if hash := shortHash(computeHashFromPath(cwd)); hash != "" {
			return hash
		}
	}
	if exePath, err := os.Executable(); err == nil {
		if hash := shortHash(computeHashFromPath(filepath.Dir(exePath))); hash != "" {
			return hash
		}
	}
	return "unknown"
}

func shortHash(hash string) string {
	if len(hash) >= 8 {
		return hash[:8]
	}
	return hash
}

func computeHashFromPath(path string) string {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
