// Package config handles kagi.toml configuration: the target, output
// options, and the dictionary instantiations to generate code for.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/you-not-fish/kagi/internal/codegen"
	"github.com/you-not-fish/kagi/internal/layout"
	"github.com/you-not-fish/kagi/internal/rtabi"
)

// Target defaults for 32-bit pointers.
const (
	DefaultTargetTriple32 = "i386-unknown-linux-gnu"
	DefaultDataLayout32   = "e-m:e-p:32:32-i64:64-i128:128-n8:16:32-S128"
)

// DefaultModule is the module name used when neither the file name nor
// [codegen] provides one.
const DefaultModule = "dicts"

// Config represents a kagi.toml file.
type Config struct {
	Target  Target  `toml:"target"`
	Codegen Codegen `toml:"codegen"`
	Dicts   []Dict  `toml:"dict"`

	// Path is the file the configuration was loaded from (empty for Default).
	Path string `toml:"-"`
}

// Target describes the machine code is generated for.
type Target struct {
	Triple       string `toml:"triple"`
	DataLayout   string `toml:"data-layout"`
	PointerWidth int64  `toml:"pointer-width"`
}

// Codegen configures the output module.
type Codegen struct {
	Module        string `toml:"module"`
	DebugComments bool   `toml:"debug-comments"`
}

// Dict is one dictionary instantiation. Its entry points are exported as
// <name>.<op>.
type Dict struct {
	Name  string   `toml:"name"`
	Key   string   `toml:"key"`
	Value string   `toml:"value"`
	Ops   []string `toml:"ops"`

	key, value layout.Layout
	ops        []codegen.Op
}

// KeyLayout returns the parsed key layout. Valid after Load or Parse.
func (d *Dict) KeyLayout() layout.Layout { return d.key }

// ValueLayout returns the parsed value layout.
func (d *Dict) ValueLayout() layout.Layout { return d.value }

// Operations returns the operations to export, all of them when Ops is
// empty.
func (d *Dict) Operations() []codegen.Op { return d.ops }

// Default returns the configuration used when no file is given: the
// default 64-bit target and no dictionaries.
func Default() *Config {
	c := &Config{}
	if err := c.finish(""); err != nil {
		panic(fmt.Sprintf("config.Default: %v", err))
	}
	return c
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes and validates configuration text. path names the source
// in errors and supplies the default module name.
func Parse(data []byte, path string) (*Config, error) {
	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := c.finish(path); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

// finish applies defaults and validates c.
func (c *Config) finish(path string) error {
	c.Path = path

	// Defaults
	if c.Target.PointerWidth == 0 {
		c.Target.PointerWidth = rtabi.DefaultPtrBytes
	}
	if c.Target.PointerWidth != 4 && c.Target.PointerWidth != 8 {
		return fmt.Errorf("target pointer-width must be 4 or 8, got %d", c.Target.PointerWidth)
	}
	if c.Target.Triple == "" {
		c.Target.Triple = rtabi.DefaultTargetTriple
		if c.Target.PointerWidth == 4 {
			c.Target.Triple = DefaultTargetTriple32
		}
	}
	if c.Target.DataLayout == "" {
		c.Target.DataLayout = rtabi.DefaultDataLayout
		if c.Target.PointerWidth == 4 {
			c.Target.DataLayout = DefaultDataLayout32
		}
	}
	if c.Codegen.Module == "" {
		c.Codegen.Module = DefaultModule
		if path != "" {
			c.Codegen.Module = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
	}

	sizes := c.Sizes()
	seen := make(map[string]bool)
	for i := range c.Dicts {
		d := &c.Dicts[i]
		if err := d.finish(sizes); err != nil {
			return fmt.Errorf("dict %d: %w", i, err)
		}
		if seen[d.Name] {
			return fmt.Errorf("dict %q defined twice", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// Sizes returns the layout sizes for the configured pointer width.
func (c *Config) Sizes() *layout.Sizes {
	return layout.NewSizes(c.Target.PointerWidth)
}

func (d *Dict) finish(sizes *layout.Sizes) error {
	if !validName(d.Name) {
		return fmt.Errorf("invalid name %q", d.Name)
	}
	var err error
	if d.key, err = layout.Parse(d.Key); err != nil {
		return fmt.Errorf("%s: key: %w", d.Name, err)
	}
	if d.value, err = layout.Parse(d.Value); err != nil {
		return fmt.Errorf("%s: value: %w", d.Name, err)
	}
	if !hashable(d.key) {
		return fmt.Errorf("%s: key layout %s cannot be hashed", d.Name, d.key)
	}
	if a := max(sizes.Alignof(d.key), sizes.Alignof(d.value)); a != 8 && a != 16 {
		return fmt.Errorf("%s: dict<%s, %s> has alignment %d, want 8 or 16", d.Name, d.key, d.value, a)
	}

	d.ops = nil
	if len(d.Ops) == 0 {
		d.ops = codegen.Ops()
		return nil
	}
	seen := make(map[codegen.Op]bool)
	for _, s := range d.Ops {
		op, err := codegen.ParseOp(s)
		if err != nil {
			return fmt.Errorf("%s: %w", d.Name, err)
		}
		if !seen[op] {
			seen[op] = true
			d.ops = append(d.ops, op)
		}
	}
	return nil
}

// validName reports whether s can prefix a symbol name.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case i > 0 && (c >= '0' && c <= '9' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// hashable reports whether keys of layout l can be hashed and compared.
func hashable(l layout.Layout) bool {
	switch l := l.(type) {
	case *layout.Builtin:
		return l.Kind() == layout.Bool || l.Kind() == layout.Str || l.IsInteger()
	case *layout.Struct:
		for _, f := range l.Fields() {
			if !hashable(f) {
				return false
			}
		}
		return true
	}
	return false
}
