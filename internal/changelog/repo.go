package changelog

import (
	"strings"
)

// RepositoryURL converts a git remote URL into an https browse URL.
// Supported forms:
//   - git@github.com:owner/repo.git → https://github.com/owner/repo
//   - ssh://git@github.com/owner/repo.git → https://github.com/owner/repo
//   - https://github.com/owner/repo.git → https://github.com/owner/repo
//
// Unrecognized remotes return "".
func RepositoryURL(remote string) string {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return ""
	}

	var host, path string
	switch {
	case strings.HasPrefix(remote, "git@"):
		rest := strings.TrimPrefix(remote, "git@")
		h, p, ok := strings.Cut(rest, ":")
		if !ok {
			return ""
		}
		host, path = h, p
	case strings.HasPrefix(remote, "ssh://"), strings.HasPrefix(remote, "git+ssh://"),
		strings.HasPrefix(remote, "https://"), strings.HasPrefix(remote, "http://"):
		_, rest, _ := strings.Cut(remote, "://")
		if at := strings.Index(rest, "@"); at >= 0 && at < strings.Index(rest+"/", "/") {
			rest = rest[at+1:]
		}
		h, p, ok := strings.Cut(rest, "/")
		if !ok {
			return ""
		}
		host, path = h, p
	default:
		return ""
	}

	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	if host == "" || strings.Count(path, "/") < 1 {
		return ""
	}
	return "https://" + host + "/" + path
}
