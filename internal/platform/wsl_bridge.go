package platform

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// wslBridge invokes the `wslpath` helper to translate a Windows
// drive-lettered path into the path WSL mounts it under, memoizing each
// translation since a given Windows path always maps to the same mount
// point for the lifetime of the WSL instance.
type wslBridge struct {
	mu    sync.Mutex
	cache map[string]string
}

func (b *wslBridge) translate(winPath string) (string, error) {
	b.mu.Lock()
	if b.cache == nil {
		b.cache = make(map[string]string)
	}
	if cached, ok := b.cache[winPath]; ok {
		b.mu.Unlock()
		return cached, nil
	}
	b.mu.Unlock()

	cmd := exec.Command("wslpath", "-u", winPath)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("platform: wslpath -u %q: %w", winPath, err)
	}
	translated := strings.TrimRight(out.String(), "\n")

	b.mu.Lock()
	b.cache[winPath] = translated
	b.mu.Unlock()

	return translated, nil
}
