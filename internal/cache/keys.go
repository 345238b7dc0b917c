package cache

// Invalidation keys name the read models a mutation made stale. Entity keys
// cover detail views, collection keys cover lists and aggregates.
const (
	KeyAssignments = "assignments"
	KeyAssets      = "assets"
	KeyEmployees   = "employees"
	KeyLocations   = "locations"
	KeyMaintenance = "maintenance"
	KeyDashboard   = "dashboard"
)

func AssignmentKey(id string) string { return "assignment:" + id }
func AssetKey(id string) string      { return "asset:" + id }
func EmployeeKey(id string) string   { return "employee:" + id }
func LocationKey(id string) string   { return "location:" + id }

// Keys collects keys in order without duplicates or blanks.
type Keys struct {
	seen map[string]struct{}
	list []string
}

func NewKeys(keys ...string) *Keys {
	k := &Keys{seen: make(map[string]struct{})}
	return k.Add(keys...)
}

func (k *Keys) Add(keys ...string) *Keys {
	for _, key := range keys {
		if key == "" || key[len(key)-1] == ':' {
			continue
		}
		if _, ok := k.seen[key]; ok {
			continue
		}
		k.seen[key] = struct{}{}
		k.list = append(k.list, key)
	}
	return k
}

func (k *Keys) List() []string {
	out := make([]string, len(k.list))
	copy(out, k.list)
	return out
}
