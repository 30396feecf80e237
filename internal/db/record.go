package db

// RecordStatus is the soft-delete state carried by every catalog and record table.
type RecordStatus string

const (
	RecordActive   RecordStatus = "active"
	RecordArchived RecordStatus = "archived"
)

func (s RecordStatus) Valid() bool {
	return s == RecordActive || s == RecordArchived
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a limit/offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}

// Clamp applies the default and maximum page size and floors the offset at zero.
func (p Page) Clamp() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
