package engine

import (
	"os"

	"github.com/lazypower/waypoint/internal/store"
)

// DecayPolicy is the aging rule applied after visits.
type DecayPolicy struct {
	Threshold float64
	Factor    float64
}

// Visit records one directory visit: the path is added if new and its
// weight raised by amount, then the decay policy is applied. It returns the
// updated entry and whether decay scaled the store.
func Visit(st *store.Store, path string, amount float64, policy DecayPolicy) (store.Entry, bool, error) {
	st.Add(path)
	st.Increase(path, amount)

	decayed, err := st.Decay(policy.Threshold, policy.Factor)
	if err != nil {
		return store.Entry{}, false, err
	}
	e, _ := st.Get(path)
	return e, decayed, nil
}

// DirMissing reports whether path no longer names a directory.
// Stat errors other than "not exist" keep the entry.
func DirMissing(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return os.IsNotExist(err)
	}
	return !info.IsDir()
}

// PurgeMissing removes entries whose directory is gone.
func PurgeMissing(st *store.Store) []store.Entry {
	return st.Purge(DirMissing)
}
