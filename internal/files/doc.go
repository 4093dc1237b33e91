// Package files discovers export files on disk.
//
// Discovery resolves recursive glob patterns against a base directory. A
// "**" segment matches any number of directories, so "**/Spot Orders.csv"
// finds every shard of that export under the input root:
//
//	discovery := files.NewDiscovery("./exports")
//	shards, err := discovery.FindFilesByPattern("", "**/Spot Orders.csv")
//
// Inventory groups the files under a pattern by base name and suggests a
// per-name pattern, which is how combination lists are usually written.
package files
