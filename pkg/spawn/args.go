package spawn

// BuildArgs assembles the final argument vector for the assistant process.
// The configured command is copied, never mutated. When a model override is
// set and the command does not already carry a model flag, "-m <model>" is
// appended.
func BuildArgs(command []string, model string) []string {
	args := make([]string, len(command))
	copy(args, command)

	if model == "" {
		return args
	}
	for _, a := range args {
		if a == "-m" || a == "--model" {
			return args
		}
	}
	return append(args, "-m", model)
}
