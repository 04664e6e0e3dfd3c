package types

// RepositoryName identifies one bucket namespace, e.g. "public" or "tools".
type RepositoryName string

func (r RepositoryName) String() string {
	return string(r)
}

// MavenRepositories are the namespaces whose uploads feed the catalog.
var MavenRepositories = []RepositoryName{
	RepoPublic,
	RepoTools,
	RepoGradlePlugins,
	RepoNative,
}

const (
	RepoPublic        RepositoryName = "public"
	RepoTools         RepositoryName = "tools"
	RepoGradlePlugins RepositoryName = "gradle-plugins"
	RepoNative        RepositoryName = "native"
	RepoBuildCache    RepositoryName = "build-cache"
)

// IsMavenRepository reports whether uploads to this namespace are eligible
// for descriptor cataloging. The build cache stores opaque blobs only.
func (r RepositoryName) IsMavenRepository() bool {
	return r != RepoBuildCache
}

// AllRepositories is the fixed set of namespaces mounted by the server.
var AllRepositories = append(append([]RepositoryName{}, MavenRepositories...), RepoBuildCache)

func ValidRepository(name string) bool {
	for _, r := range AllRepositories {
		if string(r) == name {
			return true
		}
	}
	return false
}
