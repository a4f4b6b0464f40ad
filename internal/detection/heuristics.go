package detection

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/internal/classifier"
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
)

const (
	// LargeScriptSize flags script files above this size
	LargeScriptSize int64 = 1000000
	// SmallAPKSize flags Android packages below this size
	SmallAPKSize int64 = 50000
	// contentReadLimit caps how much of a script is searched
	contentReadLimit int64 = 1 << 20
)

var (
	batchCommands = []string{
		"del /", "rmdir /", "format", "deltree", "rd /s", "del %systemroot%", "del c:",
		"del /f", "del /q", "del /s", "shutdown", "taskkill", "net user", "net localgroup",
		"reg delete", "attrib -",
	}

	scriptMarkers = []string{
		"powershell -e", "powershell.exe -e", "cmd.exe /c", "cmd /c", "wscript.shell",
		"shell.application", "downloadfile", "downloadstring", "system.net.webclient",
		"regwrite", "registry", "createobject", "getobject", "vbhidden", "hidden",
		"bypass", "executionpolicy",
	}

	apkNameTerms = []string{
		"fake", "crack", "mod", "hack", "cheat", "free", "pro", "premium", "unlock",
	}

	batchExtensions  = map[string]bool{".bat": true, ".cmd": true}
	scriptExtensions = map[string]bool{
		".bat": true, ".cmd": true, ".vbs": true, ".js": true, ".ps1": true, ".hta": true,
	}
	binaryExtensions = map[string]bool{".exe": true, ".dll": true, ".sys": true, ".scr": true}
	tempDirNames     = map[string]bool{"temp": true, "tmp": true}
)

// Heuristics are the location, size and content rules applied after the name
// stage. Content is only read for script extensions.
type Heuristics struct {
	batch   classifier.TermSet
	script  classifier.TermSet
	apkName classifier.TermSet
}

// DefaultHeuristics returns the built-in rule set
func DefaultHeuristics() *Heuristics {
	return &Heuristics{
		batch:   classifier.NewTermSet(batchCommands),
		script:  classifier.NewTermSet(scriptMarkers),
		apkName: classifier.NewTermSet(apkNameTerms),
	}
}

// HeuristicHit is the outcome of the first rule that fired; Clean when none did
type HeuristicHit struct {
	Category models.Category
	Reason   string
}

// Check runs the rules for one file. location is the slash-separated
// directory of the file relative to the scanned root. A read error comes
// back with a clean hit.
func (h *Heuristics) Check(filePath, displayName, location string) (HeuristicHit, error) {
	base := path.Base(strings.ReplaceAll(displayName, "\\", "/"))
	lower := strings.ToLower(base)
	ext := strings.ToLower(filepath.Ext(base))

	if binaryExtensions[ext] && inTempDir(location) {
		return HeuristicHit{models.Malicious, fmt.Sprintf("executable %s stored in a temp directory", base)}, nil
	}

	isScript := scriptExtensions[ext]
	if !isScript && ext != ".apk" {
		return HeuristicHit{}, nil
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return HeuristicHit{}, err
	}

	if ext == ".apk" {
		if term, ok := h.apkName.First(strings.TrimSuffix(lower, ext)); ok {
			return HeuristicHit{models.Suspicious, fmt.Sprintf("APK name contains %q", term)}, nil
		}
		if info.Size() < SmallAPKSize {
			return HeuristicHit{models.Suspicious, fmt.Sprintf("APK is suspiciously small (%d bytes)", info.Size())}, nil
		}
		return HeuristicHit{}, nil
	}

	if info.Size() > LargeScriptSize {
		return HeuristicHit{models.Suspicious, fmt.Sprintf("unusually large script (%d bytes)", info.Size())}, nil
	}

	content, err := readLower(filePath)
	if err != nil {
		return HeuristicHit{}, err
	}
	if batchExtensions[ext] {
		if term, ok := h.batch.First(content); ok {
			return HeuristicHit{models.Suspicious, fmt.Sprintf("batch file contains dangerous command %q", term)}, nil
		}
	}
	if term, ok := h.script.First(content); ok {
		return HeuristicHit{models.Suspicious, fmt.Sprintf("script contains suspicious command %q", term)}, nil
	}
	return HeuristicHit{}, nil
}

func readLower(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, contentReadLimit))
	if err != nil {
		return "", err
	}
	return strings.ToLower(string(data)), nil
}

// inTempDir reports whether any directory component is a temp folder
func inTempDir(location string) bool {
	for _, part := range strings.Split(strings.ReplaceAll(location, "\\", "/"), "/") {
		if tempDirNames[strings.ToLower(part)] {
			return true
		}
	}
	return false
}
