package synth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DescriptorTable is the emitter's lookup surface: look up by module
// type (the built-in class name, e.g. "AND2") first, then fall back to
// matching the instantiated module's definitionName against any override
// entries loaded from a descriptor file.
type DescriptorTable struct {
	byType       map[string]*Descriptor
	byDefinition map[string]*Descriptor
}

// NewDescriptorTable returns a table pre-populated with every built-in
// class's stock descriptor.
func NewDescriptorTable() *DescriptorTable {
	return &DescriptorTable{
		byType:       builtin(),
		byDefinition: map[string]*Descriptor{},
	}
}

// Lookup resolves a descriptor for an elaborated module, trying its
// built-in moduleType first and falling back to definition-name
// matching second.
func (t *DescriptorTable) Lookup(moduleType, definitionName string) (*Descriptor, bool) {
	if d, ok := t.byType[moduleType]; ok {
		return d, true
	}
	if d, ok := t.byDefinition[definitionName]; ok {
		return d, true
	}
	return nil, false
}

// RegisterOverride installs or replaces a descriptor matched against a
// definitionName rather than a built-in module type -- how a user-defined
// module opts itself into direct-to-primitive synthesis instead of
// elaborating to its body.
func (t *DescriptorTable) RegisterOverride(definitionName string, d *Descriptor) {
	t.byDefinition[definitionName] = d
}

// yamlDescriptor is the on-disk shape LoadOverrides parses: a plain
// struct with exported, yaml-tagged fields, read with os.ReadFile and
// yaml.Unmarshal.
type yamlDescriptor struct {
	DefinitionName string            `yaml:"definition_name"`
	Primitive      string            `yaml:"primitive"`
	PortMap        map[string]string `yaml:"port_map"`
	Directions     map[string]string `yaml:"directions"`
}

type yamlDescriptorFile struct {
	Descriptors []yamlDescriptor `yaml:"descriptors"`
}

// LoadOverrides reads a YAML descriptor file and registers each entry as
// a definition-name override. Port directions are given as the strings
// "in", "out", or "inout"; DeriveParams for a loaded override always
// yields one "<port>Width" parameter per port listed in port_map (unlike
// builtin()'s two-input/unary classes, which derive a single width
// parameter).
func (t *DescriptorTable) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("synth: reading descriptor file %s: %w", path, err)
	}

	var file yamlDescriptorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("synth: parsing descriptor file %s: %w", path, err)
	}

	for _, entry := range file.Descriptors {
		d, err := fromYAML(entry)
		if err != nil {
			return fmt.Errorf("synth: descriptor %q: %w", entry.DefinitionName, err)
		}
		t.RegisterOverride(entry.DefinitionName, d)
	}
	return nil
}

func fromYAML(entry yamlDescriptor) (*Descriptor, error) {
	ports := make([]string, 0, len(entry.PortMap))
	portMap := make(map[string]PortRule, len(entry.PortMap))
	directions := make(map[string]Direction, len(entry.Directions))

	for logical, primitivePort := range entry.PortMap {
		ports = append(ports, logical)
		portMap[logical] = literal(primitivePort)
	}
	for logical, dir := range entry.Directions {
		d, err := parseDirection(dir)
		if err != nil {
			return nil, err
		}
		directions[logical] = d
	}

	return &Descriptor{
		Primitive:    entry.Primitive,
		PortMap:      portMap,
		Directions:   directions,
		DeriveParams: widthParams(ports...),
	}, nil
}

func parseDirection(s string) (Direction, error) {
	switch s {
	case "in":
		return DirInput, nil
	case "out":
		return DirOutput, nil
	case "inout":
		return DirInOut, nil
	default:
		return 0, fmt.Errorf("unknown port direction %q (want in/out/inout)", s)
	}
}
