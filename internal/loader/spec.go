package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// KernelSpec is the file form of a kernel.
type KernelSpec struct {
	// Name identifies the kernel in logs and stored runs.
	Name string `yaml:"name" json:"name"`

	// Domains lists one set per group of inames, e.g.
	// "[n] -> { [i] : 0 <= i < n }". Parameters may name inames of other
	// domains.
	Domains []string `yaml:"domains" json:"domains"`

	// Assumptions constrains the parameters, e.g. "[n] -> { : n >= 1 }".
	Assumptions string `yaml:"assumptions,omitempty" json:"assumptions,omitempty"`

	Instructions []InstructionSpec `yaml:"instructions" json:"instructions"`

	// Schedule is the linearized loop nest. Optional.
	Schedule []ScheduleSpec `yaml:"schedule,omitempty" json:"schedule,omitempty"`

	// Tags maps inames to "seq", "unr", "l.N", "g.N" or "l.auto".
	Tags map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// SlabIncrements maps inames to [lower, upper] iteration counts to peel.
	SlabIncrements map[string][]int64 `yaml:"slab_increments,omitempty" json:"slab_increments,omitempty"`

	// IndexBits is 32 or 64; zero means 32.
	IndexBits int `yaml:"index_bits,omitempty" json:"index_bits,omitempty"`

	// Grid fixes the hardware axis sizes instead of deriving them.
	Grid *GridSpec `yaml:"grid,omitempty" json:"grid,omitempty"`
}

// InstructionSpec names an instruction and the inames it runs over.
type InstructionSpec struct {
	ID     string   `yaml:"id" json:"id"`
	Inames []string `yaml:"inames" json:"inames"`
}

// ScheduleSpec is one schedule item. Exactly one field is set.
type ScheduleSpec struct {
	Enter string `yaml:"enter,omitempty" json:"enter,omitempty"`
	Leave string `yaml:"leave,omitempty" json:"leave,omitempty"`
	Run   string `yaml:"run,omitempty" json:"run,omitempty"`
}

// GridSpec lists affine axis sizes, axis 0 first.
type GridSpec struct {
	Global []string `yaml:"global,omitempty" json:"global,omitempty"`
	Local  []string `yaml:"local,omitempty" json:"local,omitempty"`
}

// Format is the syntax of a kernel file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatForPath picks the format from the file extension. JSON is read as
// YAML.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("unsupported kernel file extension %q", filepath.Ext(path))
}

// LoadFile reads and parses a kernel file.
func LoadFile(path string) (*KernelSpec, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kernel file: %w", err)
	}
	spec, err := parse(data, format, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Parse decodes a kernel description. Unknown fields are rejected.
func Parse(data []byte, format Format) (*KernelSpec, error) {
	return parse(data, format, "")
}

func parse(data []byte, format Format, filename string) (*KernelSpec, error) {
	var spec KernelSpec
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatCUE:
		ctx := cuecontext.New()
		var opts []cue.BuildOption
		if filename != "" {
			opts = append(opts, cue.Filename(filename))
		}
		v := ctx.CompileBytes(data, opts...)
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return nil, formatCUEError(err)
		}
		if err := v.Decode(&spec); err != nil {
			return nil, formatCUEError(err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	spec.normalize()
	return &spec, nil
}

// normalize NFC-normalizes every identifier and set expression.
func (s *KernelSpec) normalize() {
	nfc := norm.NFC.String
	s.Name = nfc(s.Name)
	for i := range s.Domains {
		s.Domains[i] = nfc(s.Domains[i])
	}
	s.Assumptions = nfc(s.Assumptions)
	for i := range s.Instructions {
		in := &s.Instructions[i]
		in.ID = nfc(in.ID)
		for j := range in.Inames {
			in.Inames[j] = nfc(in.Inames[j])
		}
	}
	for i := range s.Schedule {
		it := &s.Schedule[i]
		it.Enter, it.Leave, it.Run = nfc(it.Enter), nfc(it.Leave), nfc(it.Run)
	}
	if s.Tags != nil {
		tags := make(map[string]string, len(s.Tags))
		for k, v := range s.Tags {
			tags[nfc(k)] = strings.TrimSpace(v)
		}
		s.Tags = tags
	}
	if s.SlabIncrements != nil {
		incs := make(map[string][]int64, len(s.SlabIncrements))
		for k, v := range s.SlabIncrements {
			incs[nfc(k)] = v
		}
		s.SlabIncrements = incs
	}
	if s.Grid != nil {
		for i := range s.Grid.Global {
			s.Grid.Global[i] = nfc(s.Grid.Global[i])
		}
		for i := range s.Grid.Local {
			s.Grid.Local[i] = nfc(s.Grid.Local[i])
		}
	}
}
