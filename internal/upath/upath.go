// Package upath holds the small path-string predicates internal/syscall
// and cmd/kernel need to validate names crossing the user/kernel
// boundary before handing them to internal/easyfs's flat, single-
// component Find -- adapted from biscuit's ustr package, generalized
// from its []uint8 representation to plain Go strings since nothing
// else in this module works with raw byte paths.
package upath

// IsDot reports whether name is exactly ".".
func IsDot(name string) bool {
	return name == "."
}

// IsDotDot reports whether name is exactly "..".
func IsDotDot(name string) bool {
	return name == ".."
}

// IsAbsolute reports whether path begins with '/'.
func IsAbsolute(path string) bool {
	return len(path) > 0 && path[0] == '/'
}

// Clean strips a single leading '/', the only path shape
// internal/easyfs's flat root directory understands -- it has no nested
// directory traversal to walk the rest of a multi-component path
// against (original_source/os/src/fs/inode.rs's open_file looks up
// ROOT_INODE.find(name) directly, the same flat shape).
func Clean(path string) string {
	if IsAbsolute(path) {
		return path[1:]
	}
	return path
}

// Valid reports whether name is usable as a single easy-fs directory
// entry: non-empty, not "." or "..", and not a path with more than one
// component.
func Valid(name string) bool {
	if name == "" || IsDot(name) || IsDotDot(name) {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return false
		}
	}
	return true
}
