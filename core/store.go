package core

// Ordering is a single order-by clause applied to a repository query.
type Ordering struct {
	Field     string
	Ascending bool
}

// Pagination limits a repository query. A zero Limit means "use the default".
type Pagination struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Clean clamps the pagination bounds to sane values.
func (p *Pagination) Clean() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	} else if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
