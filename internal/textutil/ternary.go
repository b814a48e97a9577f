package textutil

// Ternary returns a when cond holds and b otherwise. Used for yes/no and
// singular/plural labels in command output.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
