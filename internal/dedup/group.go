package dedup

import "sort"

// GroupDuplicates keeps only the buckets with two or more members. Groups
// are ordered by their first (smallest) path, which is unique per group
// because a file belongs to exactly one digest.
func GroupDuplicates(index Index) []Group {
	groups := make([]Group, 0)
	for digest, b := range index {
		if len(b.Files) < 2 {
			continue
		}
		files := append([]string(nil), b.Files...)
		sort.Strings(files)
		groups = append(groups, Group{
			Digest: digest,
			Size:   b.Size,
			Files:  files,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Files[0] < groups[j].Files[0]
	})

	return groups
}
