package partition

import (
	"sort"
	"strings"

	"untiscal/internal/model"
	"untiscal/internal/schedule"
)

// Group is one named output bucket handed to the emission layer.
type Group struct {
	Name string
	// Suffix is the suggested filename suffix, empty for the catch-all.
	Suffix  string
	Periods []model.Period
}

// Partition splits the stratified period set into named buckets. A
// course listed in the override mapping gets its own bucket under its
// mapped display name; everything else lands in the catch-all. PRIO
// buckets pass through, renamed via the same mapping when an entry for
// their key exists.
func Partition(b schedule.Buckets, overrides map[string]string) []Group {
	catchAll := Group{Name: "main"}
	byName := make(map[string][]model.Period)

	for _, p := range b.Main {
		name := ""
		if overrides != nil {
			name = overrides[p.Course.Name]
		}
		if name == "" {
			catchAll.Periods = append(catchAll.Periods, p)
			continue
		}
		byName[name] = append(byName[name], p)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Group, 0, 1+len(names)+len(b.Prio))
	out = append(out, catchAll)
	for _, name := range names {
		out = append(out, Group{
			Name:    name,
			Suffix:  "_" + slug(name),
			Periods: byName[name],
		})
	}

	for _, pb := range b.Prio {
		name := pb.Key
		if overrides != nil && overrides[pb.Key] != "" {
			name = overrides[pb.Key]
		}
		out = append(out, Group{
			Name:    name,
			Suffix:  "_" + slug(name),
			Periods: pb.Periods,
		})
	}

	return out
}

// slug makes a name safe as a filename fragment.
func slug(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('-')
		}
	}
	return strings.Trim(sb.String(), "-")
}
