package domain

// TabVisibility maps each process tab to whether it is shown. An empty or
// unknown selection falls back to the first process.
func TabVisibility(processes []string, selected string) map[string]bool {
	visible := make(map[string]bool, len(processes))
	found := false
	for _, p := range processes {
		visible[p] = p == selected
		if p == selected {
			found = true
		}
	}
	if !found && len(processes) > 0 {
		visible[processes[0]] = true
	}
	return visible
}
