package plan

// EntityKind is the record type of a scenario line.
type EntityKind string

const (
	KindSat        EntityKind = "sat"
	KindUser       EntityKind = "user"
	KindInterferer EntityKind = "interferer"
)

// validEntityKinds maps accepted record type strings.
var validEntityKinds = map[EntityKind]bool{
	KindSat:        true,
	KindUser:       true,
	KindInterferer: true,
}

// Entity is a named position: a constellation satellite, a ground user, or a
// non-constellation interferer.
type Entity struct {
	ID  string
	Pos Point3
}

// Scenario is a static snapshot of all positions for one planning run.
// Each slice keeps file insertion order; the greedy engine's outcome depends
// on that order.
type Scenario struct {
	Sats        []Entity
	Users       []Entity
	Interferers []Entity

	index map[EntityKind]map[string]int // kind -> id -> slice index
}

// NewScenario creates an empty Scenario.
func NewScenario() *Scenario {
	return &Scenario{}
}

// Add inserts an entity of the given kind. An ID that already exists keeps
// its original position in the order and takes the new location; Add
// reports true in that case.
func (s *Scenario) Add(kind EntityKind, id string, pos Point3) (replaced bool) {
	s.ensureIndex()
	list := s.entities(kind)
	if i, ok := s.index[kind][id]; ok {
		(*list)[i].Pos = pos
		return true
	}
	s.index[kind][id] = len(*list)
	*list = append(*list, Entity{ID: id, Pos: pos})
	return false
}

// Sat returns the position of satellite id.
func (s *Scenario) Sat(id string) (Point3, bool) { return s.lookup(KindSat, id) }

// User returns the position of user id.
func (s *Scenario) User(id string) (Point3, bool) { return s.lookup(KindUser, id) }

// Interferer returns the position of interferer id.
func (s *Scenario) Interferer(id string) (Point3, bool) { return s.lookup(KindInterferer, id) }

func (s *Scenario) lookup(kind EntityKind, id string) (Point3, bool) {
	s.ensureIndex()
	i, ok := s.index[kind][id]
	if !ok {
		return Point3{}, false
	}
	return (*s.entities(kind))[i].Pos, true
}

func (s *Scenario) entities(kind EntityKind) *[]Entity {
	switch kind {
	case KindSat:
		return &s.Sats
	case KindUser:
		return &s.Users
	default:
		return &s.Interferers
	}
}

// ensureIndex builds the ID index from the slices, so a Scenario assembled
// as a struct literal behaves like one built through Add.
func (s *Scenario) ensureIndex() {
	if s.index != nil {
		return
	}
	s.index = make(map[EntityKind]map[string]int, len(validEntityKinds))
	for kind := range validEntityKinds {
		ids := make(map[string]int)
		for i, e := range *s.entities(kind) {
			ids[e.ID] = i
		}
		s.index[kind] = ids
	}
}
