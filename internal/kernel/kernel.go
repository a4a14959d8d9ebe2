package kernel

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	set "github.com/hashicorp/go-set/v3"

	"github.com/roach88/loopnest/internal/presburger"
)

// Instruction is a statement executed once per point of the domain of its
// inames.
type Instruction struct {
	ID     string
	Inames []string
}

// ItemKind distinguishes schedule items.
type ItemKind int

const (
	EnterLoop ItemKind = iota
	LeaveLoop
	RunInstruction
)

func (k ItemKind) String() string {
	switch k {
	case EnterLoop:
		return "enter"
	case LeaveLoop:
		return "leave"
	case RunInstruction:
		return "run"
	}
	return fmt.Sprintf("item(%d)", int(k))
}

// ScheduleItem is one step of the linearized loop nest.
type ScheduleItem struct {
	Kind  ItemKind
	Iname string // EnterLoop and LeaveLoop
	Insn  string // RunInstruction
}

func (it ScheduleItem) String() string {
	if it.Kind == RunInstruction {
		return "run " + it.Insn
	}
	return it.Kind.String() + " " + it.Iname
}

// SlabIncrement is how many boundary iterations to peel off the start
// (Lower) and the end (Upper) of an iname's range.
type SlabIncrement struct {
	Lower int64
	Upper int64
}

// IsZero reports whether no peeling is requested.
func (s SlabIncrement) IsZero() bool { return s.Lower == 0 && s.Upper == 0 }

// Grid holds the per-axis sizes of the global (group) and local hardware
// index spaces. Axis n of each slice is the size of "g.n" and "l.n".
type Grid struct {
	Global []presburger.Aff
	Local  []presburger.Aff
}

func (g Grid) clone() Grid {
	return Grid{Global: slices.Clone(g.Global), Local: slices.Clone(g.Local)}
}

// Config describes a kernel for New.
type Config struct {
	Name           string
	Domains        []presburger.Set
	Assumptions    presburger.Set
	Instructions   []Instruction
	Schedule       []ScheduleItem
	Tags           map[string]Tag
	SlabIncrements map[string]SlabIncrement

	// IndexBits is the width of loop counters, 32 or 64. Zero means 32.
	IndexBits int

	// Grid fixes the hardware sizes. When nil they are derived from the
	// bounds of the hardware inames.
	Grid *Grid

	// Cache memoizes bound queries. When nil a fresh cache is created.
	Cache *presburger.Cache
}

// Kernel is an immutable snapshot of everything the lowering stage reads.
// Methods that "modify" a kernel return a new value sharing all unaffected
// fields with the receiver.
type Kernel struct {
	name           string
	domains        []presburger.Set
	assumptions    presburger.Set
	instructions   []Instruction
	insnIndex      map[string]int
	schedule       []ScheduleItem
	tags           map[string]Tag
	slabIncrements map[string]SlabIncrement
	indexBits      int
	inames         *set.Set[string]
	cache          *presburger.Cache
	grid           func() (Grid, error)
}

// New validates cfg and builds a kernel.
func New(cfg Config) (*Kernel, error) {
	if errs := Validate(cfg); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, fmt.Errorf("kernel %q: %w", cfg.Name, errors.Join(joined...))
	}

	k := &Kernel{
		name:           cfg.Name,
		domains:        slices.Clone(cfg.Domains),
		assumptions:    cfg.Assumptions,
		instructions:   slices.Clone(cfg.Instructions),
		insnIndex:      make(map[string]int, len(cfg.Instructions)),
		schedule:       slices.Clone(cfg.Schedule),
		tags:           maps.Clone(cfg.Tags),
		slabIncrements: maps.Clone(cfg.SlabIncrements),
		indexBits:      cfg.IndexBits,
		inames:         set.New[string](0),
		cache:          cfg.Cache,
	}
	if k.indexBits == 0 {
		k.indexBits = 32
	}
	if k.cache == nil {
		k.cache = presburger.NewCache()
	}
	if k.tags == nil {
		k.tags = map[string]Tag{}
	}
	if k.slabIncrements == nil {
		k.slabIncrements = map[string]SlabIncrement{}
	}
	for i, insn := range k.instructions {
		k.insnIndex[insn.ID] = i
	}
	for _, d := range k.domains {
		k.inames.InsertSlice(d.Space().Dims())
	}

	if cfg.Grid != nil {
		fixed := cfg.Grid.clone()
		k.grid = func() (Grid, error) { return fixed.clone(), nil }
	} else {
		// Bound to the kernel as constructed: narrowed copies made by
		// WithSlab keep reporting the original sizes.
		derived := sync.OnceValues(func() (Grid, error) { return deriveGrid(k) })
		k.grid = func() (Grid, error) {
			g, err := derived()
			return g.clone(), err
		}
	}
	return k, nil
}

// Name returns the kernel name.
func (k *Kernel) Name() string { return k.name }

// Domains returns the kernel's domain list.
func (k *Kernel) Domains() []presburger.Set { return slices.Clone(k.domains) }

// Assumptions returns the constraints assumed to hold on the parameters.
func (k *Kernel) Assumptions() presburger.Set { return k.assumptions }

// Instructions returns the instructions in declaration order.
func (k *Kernel) Instructions() []Instruction { return slices.Clone(k.instructions) }

// Instruction looks up an instruction by ID.
func (k *Kernel) Instruction(id string) (Instruction, bool) {
	i, ok := k.insnIndex[id]
	if !ok {
		return Instruction{}, false
	}
	return k.instructions[i], true
}

// Schedule returns the linearized loop nest.
func (k *Kernel) Schedule() []ScheduleItem { return slices.Clone(k.schedule) }

// Tag returns the tag of iname; untagged inames are Sequential.
func (k *Kernel) Tag(iname string) Tag { return k.tags[iname] }

// SlabIncrement returns the peeling configuration of iname.
func (k *Kernel) SlabIncrement(iname string) SlabIncrement { return k.slabIncrements[iname] }

// IndexBits returns the loop counter width.
func (k *Kernel) IndexBits() int { return k.indexBits }

// IndexCType returns the C type used for loop counters.
func (k *Kernel) IndexCType() string {
	if k.indexBits == 64 {
		return "long"
	}
	return "int"
}

// Cache returns the bounds cache shared by the kernel and its snapshots.
func (k *Kernel) Cache() *presburger.Cache { return k.cache }

// IsIname reports whether name is a set dimension of some domain.
func (k *Kernel) IsIname(name string) bool { return k.inames.Contains(name) }

// AllInames returns every iname, sorted.
func (k *Kernel) AllInames() []string {
	names := k.inames.Slice()
	slices.Sort(names)
	return names
}

// Params returns the symbolic parameters of the kernel, sorted. Inames used
// as parameters of nested domains are not included.
func (k *Kernel) Params() []string {
	params := set.New[string](0)
	for _, d := range append(k.Domains(), k.assumptions) {
		for _, p := range d.Space().Params() {
			if !k.IsIname(p) {
				params.Insert(p)
			}
		}
	}
	names := params.Slice()
	slices.Sort(names)
	return names
}

// HomeDomainIndex returns the index of the domain that has iname as a set
// dimension.
func (k *Kernel) HomeDomainIndex(iname string) (int, error) {
	for i, d := range k.domains {
		if typ, _, ok := d.Space().Find(iname); ok && typ == presburger.SetDim {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIname, iname)
}

// InamesDomain returns the conjunction of the home domains of inames, of the
// domains those depend on through iname-valued parameters, and of the
// assumptions. Inames appear as set dimensions of the result.
func (k *Kernel) InamesDomain(inames ...string) (presburger.Set, error) {
	picked := set.New[int](len(k.domains))
	var visit func(h int) error
	visit = func(h int) error {
		if !picked.Insert(h) {
			return nil
		}
		for _, p := range k.domains[h].Space().Params() {
			if !k.IsIname(p) {
				continue
			}
			dep, err := k.HomeDomainIndex(p)
			if err != nil {
				return err
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, iname := range inames {
		h, err := k.HomeDomainIndex(iname)
		if err != nil {
			return presburger.Set{}, err
		}
		if err := visit(h); err != nil {
			return presburger.Set{}, err
		}
	}

	order := picked.Slice()
	slices.Sort(order)
	dom := presburger.Universe(presburger.NewSpace(nil, nil))
	for _, h := range order {
		dom = dom.Intersect(k.domains[h])
	}
	for _, p := range dom.Space().Params() {
		if k.IsIname(p) {
			dom = dom.MoveToSet(p)
		}
	}
	return dom.Intersect(k.assumptions), nil
}

// ActiveInames returns the inames of the loops that enclose schedule
// position schedIndex, outermost first.
func (k *Kernel) ActiveInames(schedIndex int) []string {
	var active []string
	for _, it := range k.schedule[:min(schedIndex, len(k.schedule))] {
		switch it.Kind {
		case EnterLoop:
			active = append(active, it.Iname)
		case LeaveLoop:
			if i := slices.Index(active, it.Iname); i >= 0 {
				active = active[:i]
			}
		}
	}
	return active
}

// UsableInames returns the inames whose values are known at schedule
// position schedIndex and may therefore be treated as parameters by bound
// queries and conditionals.
func (k *Kernel) UsableInames(schedIndex int) *set.Set[string] {
	return set.From(k.ActiveInames(schedIndex))
}
