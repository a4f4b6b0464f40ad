package classifier

import (
	"github.com/pchaitanya921/USB-LOG-MONITORING-AND-INTRUSION-DETECTION-SYSTEM-sub000/pkg/models"
)

// Default rule tables. Every term is matched against the lowercased name.
var (
	ransomwareSuffixes = []string{
		".encrypt", ".locked", ".crypted", ".crypt", ".crypto", ".enc", ".pay", ".ransom",
		".wcry", ".wncry", ".wncryt", ".crab", ".locky", ".zepto", ".cerber", ".cerber2",
		".cerber3", ".cryp1", ".onion", ".aaa", ".ecc", ".ezz", ".exx", ".xyz", ".zzz",
		".abc", ".ccc", ".vvv", ".xxx", ".ttt", ".micro", ".encrypted", ".matrix",
	}

	malwareFamilies = []string{
		"wannacry", "petya", "notpetya", "locky", "cryptolocker", "teslacrypt", "cerber",
		"jigsaw", "cryptxxx", "cryptowall", "ransomware", "trojan", "backdoor", "rootkit",
		"keylogger", "spyware", "adware", "worm", "virus", "exploit", "malware",
	}

	ransomNotes = []string{
		"how_to_decrypt.txt", "how_to_decrypt.html", "decrypt_instructions.txt",
		"decrypt_instructions.html", "decrypt_instruction.html", "help_decrypt.txt",
		"help_decrypt.html", "how_to_restore_files.txt", "how_to_restore.txt",
		"restore_files.txt", "how_to_recover.txt", "recover_files.txt", "recover_file.txt",
		"how_to_unlock.txt", "how_to_pay.txt", "decrypt.txt", "decrypt.html",
		"decrypt_files.txt", "ransom.txt", "_readme_to_decrypt.txt", "@please_read_me@.txt",
		"!readme!.txt", "_locky_recover_instructions.txt",
	}

	// known test droppers
	knownBadNames = []string{"fake_threat.bat", "fake_threat"}

	sensitiveTerms = []string{
		"crack", "keygen", "patch", "serial", "warez", "nulled", "hack", "leaked", "stolen",
		"password", "credentials", "admin", "root", "login", "bank", "credit", "card", "ssn",
		"social", "security", "tax", "financial", "sensitive",
	}

	suspiciousNames = []string{"autorun.inf"}

	executableSuffixes = []string{
		".exe", ".dll", ".bat", ".cmd", ".ps1", ".vbs", ".js", ".scr", ".com", ".pif", ".hta",
	}
)

// Tables holds the term lists a Classifier is built from
type Tables struct {
	MaliciousSuffixes    []string
	MaliciousSubstrings  []string
	MaliciousNames       []string
	SuspiciousSubstrings []string
	SuspiciousNames      []string
	ExecutableSuffixes   []string
}

// DefaultTables returns a fresh copy of the canonical rule tables
func DefaultTables() Tables {
	return Tables{
		MaliciousSuffixes:    clone(ransomwareSuffixes),
		MaliciousSubstrings:  clone(malwareFamilies),
		MaliciousNames:       append(clone(ransomNotes), knownBadNames...),
		SuspiciousSubstrings: clone(sensitiveTerms),
		SuspiciousNames:      clone(suspiciousNames),
		ExecutableSuffixes:   clone(executableSuffixes),
	}
}

// Size returns the total number of terms across all tables
func (t Tables) Size() int {
	return len(t.MaliciousSuffixes) + len(t.MaliciousSubstrings) + len(t.MaliciousNames) +
		len(t.SuspiciousSubstrings) + len(t.SuspiciousNames) + len(t.ExecutableSuffixes)
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Extend appends signature-file name rules to the tables
func (t *Tables) Extend(rules models.NameRules) {
	t.MaliciousSubstrings = append(t.MaliciousSubstrings, rules.MaliciousSubstrings...)
	t.MaliciousSuffixes = append(t.MaliciousSuffixes, rules.MaliciousSuffixes...)
	t.SuspiciousSubstrings = append(t.SuspiciousSubstrings, rules.SuspiciousSubstrings...)
}
