package listener

import "strings"

// DefaultLogMarker is the instruction log emitted when a bonding curve migrates.
const DefaultLogMarker = "Program log: Instruction: Migrate"

// logsContainMarker reports whether marker appears while programID is on the
// invocation stack. Logs from nested programs count; logs after the program
// returns do not.
func logsContainMarker(logs []string, programID, marker string) bool {
	invoke := "Program " + programID + " invoke"
	success := "Program " + programID + " success"
	failed := "Program " + programID + " failed"

	depth := 0
	for _, line := range logs {
		switch {
		case strings.HasPrefix(line, invoke):
			depth++
			continue
		case strings.HasPrefix(line, success), strings.HasPrefix(line, failed):
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth > 0 && strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
