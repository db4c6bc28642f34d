package cpi

// Resolve maps a caller's filter to exactly one series in c. A series id
// is authoritative: when it is set, conflicting area, item, survey or
// periodicity values are ignored without error.
func Resolve(c *Catalog, f Filter) (*Series, error) {
	if f.SeriesID != "" {
		f = Filter{SeriesID: f.SeriesID}
	}
	return c.Find(f)
}
